package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/ebookstudio/internal/api"
	"github.com/jackzampolin/ebookstudio/internal/manuscript"
	"github.com/jackzampolin/ebookstudio/internal/segment"
)

var (
	segmentText string
	segmentToc  string
)

var segmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Segment a manuscript locally without a server",
	Long: `Split a manuscript into chapters using its table of contents and print
the resulting document.

Text, markdown and PDF manuscripts are accepted.

Examples:
  studio segment --text book.md --toc toc.txt
  studio segment --text book.pdf -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := manuscript.Read(segmentText)
		if err != nil {
			return fmt.Errorf("failed to read manuscript: %w", err)
		}
		var toc string
		if segmentToc != "" {
			m, err := manuscript.Read(segmentToc)
			if err != nil {
				return fmt.Errorf("failed to read table of contents: %w", err)
			}
			toc = m.Text
		}

		doc := segment.Segment(text.Text, toc).Ebook(text.Text, toc)
		return api.Output(doc)
	},
}

func init() {
	segmentCmd.Flags().StringVar(&segmentText, "text", "", "Manuscript file (.txt, .md or .pdf)")
	segmentCmd.Flags().StringVar(&segmentToc, "toc", "", "Table of contents file")
	_ = segmentCmd.MarkFlagRequired("text")

	rootCmd.AddCommand(segmentCmd)
}
