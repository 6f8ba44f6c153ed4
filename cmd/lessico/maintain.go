// CLAUDE:SUMMARY CLI subcommands that rewrite or inspect whole tables (finalize, enrich, history).
package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/hazyhaar/lessico/pkg/dict"
	"github.com/hazyhaar/lessico/pkg/enrich"
	"github.com/hazyhaar/lessico/pkg/ledger"
)

func cmdFinalize(args []string, stdout io.Writer) error {
	var cf commonFlags
	fs := newFlagSet("finalize", &cf)
	all := fs.Bool("all", false, "finalize every configured table")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := newApp(cf)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()

	if *all {
		ok, failed := ledger.NewScheduler(a.reg, a.logger, 0).FinalizeAll(ctx)
		fmt.Fprintf(stdout, "%d tables finalized, %d failed\n", ok, failed)
		if failed > 0 {
			return fmt.Errorf("%d of %d tables failed", failed, ok+failed)
		}
		return nil
	}

	l, err := a.ledger()
	if err != nil {
		return err
	}
	rep, err := l.Finalize(ctx)
	if err != nil {
		return err
	}
	printReport(stdout, l.ID(), rep)
	return nil
}

func printReport(w io.Writer, id string, rep *dict.Report) {
	fmt.Fprintf(w, "%s: %d rows -> %d (exact duplicates %d, english merges %d, italian merges %d, conflicts %d)\n",
		id, rep.RowsIn, rep.RowsOut, rep.ExactDuplicates, rep.EnglishMerges, rep.ItalianMerges, len(rep.Conflicts))
	for _, c := range rep.Conflicts {
		fmt.Fprintf(w, "  conflict %s %q %s: kept %q, dropped %q\n", c.Axis, c.Identity, c.Field, c.Kept, c.Dropped)
	}
}

func cmdEnrich(args []string, stdout io.Writer) error {
	var cf commonFlags
	fs := newFlagSet("enrich", &cf)
	overwrite := fs.Bool("overwrite", false, "replace non-empty values too")
	tatoeba := fs.Bool("tatoeba", false, "fetch example sentences from Tatoeba")
	translate := fs.String("translate", "", "translation provider: libretranslate or deepl")
	mode := fs.String("translate-mode", "", "what to translate: terms, sentences or both")
	espeak := fs.Bool("espeak", false, "generate missing Italian IPA with espeak-ng")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := newApp(cf)
	if err != nil {
		return err
	}
	defer a.close()
	l, err := a.ledger()
	if err != nil {
		return err
	}

	ecfg := a.cfg.Enrich
	ecfg.Overwrite = ecfg.Overwrite || *overwrite
	ecfg.Tatoeba.Enabled = ecfg.Tatoeba.Enabled || *tatoeba
	ecfg.Espeak.Enabled = ecfg.Espeak.Enabled || *espeak
	if *translate != "" {
		ecfg.Translate.Provider = *translate
	}
	if *mode != "" {
		ecfg.Translate.Mode = *mode
	}
	if err := ecfg.Translate.Validate(); err != nil {
		return fmt.Errorf("translate: %w", err)
	}
	e, err := enrich.FromConfig(ecfg, a.logger)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	st, err := l.Enrich(ctx, e)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: %d rows, filled taxonomy %d, levels %d, sentences %d, translations %d, sentence translations %d, ipa %d, lookup errors %d\n",
		l.ID(), st.Rows, st.Taxonomy, st.Levels, st.Sentences, st.Translations, st.SentenceTranslations, st.Pronunciations, st.Errors)
	return nil
}

func cmdHistory(args []string, stdout io.Writer) error {
	var cf commonFlags
	fs := newFlagSet("history", &cf)
	limit := fs.Int("limit", 20, "number of passes to show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := newApp(cf)
	if err != nil {
		return err
	}
	defer a.close()
	if a.journal == nil {
		return errors.New("no journal configured (set journal in the config or LESSICO_JOURNAL)")
	}

	tableID := ""
	if cf.table != "" {
		l, err := a.ledger()
		if err != nil {
			return err
		}
		tableID = l.ID()
	}

	ctx, stop := signalContext()
	defer stop()
	passes, err := a.journal.ListPasses(ctx, tableID, *limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tTABLE\tSTATUS\tIN\tOUT\tDUPES\tEN\tIT\tCONFLICTS\tBACKUP")
	for _, p := range passes {
		status := p.Status
		if p.Error != "" {
			status += ": " + p.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			p.StartedAt.Format(time.DateTime), p.TableID, status,
			p.RowsIn, p.RowsOut, p.ExactDuplicates, p.EnglishMerges, p.ItalianMerges, p.Conflicts, p.BackupPath)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if tableID != "" {
		added, skipped, err := a.journal.IngestionCounts(ctx, tableID)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "\ningestions: %d added, %d already present\n", added, skipped)
	}
	return nil
}
