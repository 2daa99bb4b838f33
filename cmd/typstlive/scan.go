package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/alnah/go-typstlive/internal/docs"
	"github.com/alnah/go-typstlive/internal/hints"
	"github.com/alnah/go-typstlive/internal/yamlutil"
)

// runScan lists the preview blocks of a docs tree.
func runScan(args []string, env *Environment) error {
	flags, rest, err := parseScanFlags(args)
	if err != nil {
		return err
	}
	if flags.format != "table" && flags.format != "yaml" {
		return fmt.Errorf("%w: unknown format %q (table, yaml)", ErrInvalidFlags, flags.format)
	}
	cfg, err := loadConfig(flags.common)
	if err != nil {
		return err
	}

	dir := cfg.Docs.Dir
	if len(rest) > 0 {
		dir = rest[0]
	}
	if dir == "" {
		dir = "."
	}

	pages, err := docs.ScanDir(dir)
	if err != nil {
		return err
	}
	if flags.format == "yaml" {
		if err := printScanYAML(env.Stdout, pages); err != nil {
			return err
		}
	} else {
		printScanTable(env.Stdout, pages)
	}

	total := 0
	for _, p := range pages {
		total += len(p.Blocks)
	}
	if total == 0 && !flags.common.quiet {
		fmt.Fprintf(env.Stderr, "no preview blocks found in %s%s\n", dir, hints.ForNoPreviews())
	}
	return nil
}

func printScanTable(w io.Writer, pages []docs.Page) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Page", "#", "Line", "Layout", "Editable", "Hidden", "Fallback"})

	total := 0
	for _, p := range pages {
		for _, b := range p.Blocks {
			total++
			tw.AppendRow(table.Row{
				p.Rel,
				b.Index + 1,
				b.Line,
				layoutOrDefault(b.Preview.Layout),
				yesNo(b.Preview.Editable),
				hiddenLines(b.Preview.Prefix, b.Preview.Suffix),
				b.Preview.Image,
			})
		}
	}
	tw.AppendFooter(table.Row{"", "", "", "", "", "Total", total})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	tw.Render()
}

// scanEntry is one preview block in YAML output.
type scanEntry struct {
	Page     string `yaml:"page"`
	Index    int    `yaml:"index"`
	Line     int    `yaml:"line"`
	Layout   string `yaml:"layout"`
	Editable bool   `yaml:"editable"`
	Hidden   string `yaml:"hidden,omitempty"`
	Fallback string `yaml:"fallback,omitempty"`
}

func printScanYAML(w io.Writer, pages []docs.Page) error {
	entries := []scanEntry{}
	for _, p := range pages {
		for _, b := range p.Blocks {
			entries = append(entries, scanEntry{
				Page:     p.Rel,
				Index:    b.Index + 1,
				Line:     b.Line,
				Layout:   layoutOrDefault(b.Preview.Layout),
				Editable: b.Preview.Editable,
				Hidden:   hiddenLines(b.Preview.Prefix, b.Preview.Suffix),
				Fallback: b.Preview.Image,
			})
		}
	}
	data, err := yamlutil.Marshal(entries)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func layoutOrDefault(l string) string {
	if l == "" {
		return "horizontal"
	}
	return strings.ToLower(l)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// hiddenLines summarises boilerplate as "+prefix/+suffix" line counts.
func hiddenLines(prefix, suffix string) string {
	if prefix == "" && suffix == "" {
		return ""
	}
	return fmt.Sprintf("+%d/+%d", lineCount(prefix), lineCount(suffix))
}

func lineCount(s string) int {
	s = strings.Trim(s, "\n")
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
