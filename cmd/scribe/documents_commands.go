package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/platform"
)

func newDocumentsCommand(ctx *commandContext) *cobra.Command {
	docsCmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "Manage reference documents",
	}

	docsCmd.AddCommand(newDocumentsListCommand(ctx))
	docsCmd.AddCommand(newDocumentsUploadCommand(ctx))
	docsCmd.AddCommand(newDocumentsDeleteCommand(ctx))

	return docsCmd
}

func newDocumentsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reference documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(rt *runtime) error {
				docs, err := rt.client.Documents.List(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, docs)
				}
				out := cmd.OutOrStdout()
				if len(docs.Documents) == 0 {
					fmt.Fprintln(out, "No documents")
					return nil
				}
				rows := make([][]string, 0, len(docs.Documents))
				for _, doc := range docs.Documents {
					rows = append(rows, []string{
						doc.ID,
						doc.Name,
						titleCase(string(doc.DocumentType)),
						strconv.FormatInt(doc.FileSize, 10),
						titleCase(doc.UploadStatus),
						formatTime(doc.CreatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Name", "Type", "Bytes", "Status", "Created"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				fmt.Fprintf(out, "%d documents, %d audio files\n", docs.TotalDocuments, docs.TotalAudioFiles)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newDocumentsUploadCommand(ctx *commandContext) *cobra.Command {
	var documentType string
	var name string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a reference document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open document: %w", err)
			}
			defer file.Close()

			req := platform.UploadDocument{
				FileName:     filepath.Base(args[0]),
				File:         file,
				DocumentType: strings.TrimSpace(documentType),
				DocumentName: strings.TrimSpace(name),
			}
			return ctx.withClient(cmd, func(rt *runtime) error {
				doc, err := rt.client.Documents.Upload(cmd.Context(), req)
				if err != nil {
					return err
				}
				label := doc.Name
				if label == "" {
					label = req.FileName
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%s)\n", label, doc.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&documentType, "type", "", "Document type (sop, script, guideline, checklist)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	return cmd
}

func newDocumentsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a reference document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withClient(cmd, func(rt *runtime) error {
				if err := rt.client.Documents.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted document %s\n", id)
				return nil
			})
		},
	}
}
