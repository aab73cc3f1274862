package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/paging"
	"scribe/internal/platform"
)

func newAudioCommand(ctx *commandContext) *cobra.Command {
	audioCmd := &cobra.Command{
		Use:   "audio",
		Short: "Upload audio and inspect processed records",
	}

	audioCmd.AddCommand(newAudioListCommand(ctx))
	audioCmd.AddCommand(newAudioShowCommand(ctx))
	audioCmd.AddCommand(newAudioUploadCommand(ctx))
	audioCmd.AddCommand(newAudioDiarizeCommand(ctx))
	audioCmd.AddCommand(newAudioSpeakersCommand(ctx))
	audioCmd.AddCommand(newAudioMapCommand(ctx))
	audioCmd.AddCommand(newAudioDownloadURLCommand(ctx))

	return audioCmd
}

func newAudioListCommand(ctx *commandContext) *cobra.Command {
	var page int
	var all bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audio records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(rt *runtime) error {
				var records []platform.AudioRecord
				footer := ""
				if all {
					var err error
					records, err = rt.client.Audio.AllRecords(cmd.Context())
					if err != nil {
						return err
					}
				} else {
					result, err := rt.client.Audio.ListRecords(cmd.Context(), page)
					if err != nil {
						return err
					}
					records = result.Results
					if next, ok := result.NextPage(); ok {
						footer = fmt.Sprintf("%d records total; next page: --page %d", result.Count, next)
					}
				}

				if jsonOutput {
					if records == nil {
						records = []platform.AudioRecord{}
					}
					return writeJSON(cmd, records)
				}

				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No audio records")
					return nil
				}
				fmt.Fprint(out, renderAudioTable(records))
				fmt.Fprintln(out)
				if footer != "" {
					fmt.Fprintln(out, footer)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page to fetch")
	cmd.Flags().BoolVar(&all, "all", false, "Fetch every page")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderAudioTable(records []platform.AudioRecord) string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.ID,
			rec.OriginalFilename,
			titleCase(string(rec.Status)),
			formatSeconds(rec.Duration),
			formatPercent(rec.Coverage),
			formatTime(rec.CreatedAt),
		})
	}
	return renderTable(
		[]string{"ID", "File", "Status", "Duration", "Coverage", "Created"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func newAudioShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one audio record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(rt *runtime) error {
				id := strings.TrimSpace(args[0])
				rec, err := rt.client.Audio.FindRecord(cmd.Context(), id)
				if errors.Is(err, paging.ErrRecordNotFound) {
					return fmt.Errorf("audio record %s not found", id)
				}
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, rec)
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader(rec.OriginalFilename, colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("ID", statusInfo, rec.ID, colorize))
				fmt.Fprintln(out, renderStatusLine("Status", audioStatusKind(rec.Status), titleCase(string(rec.Status)), colorize))
				fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, formatSeconds(rec.Duration), colorize))
				fmt.Fprintln(out, renderStatusLine("Coverage", statusInfo, formatPercent(rec.Coverage), colorize))
				fmt.Fprintln(out, renderStatusLine("Created", statusInfo, formatTime(rec.CreatedAt), colorize))
				fmt.Fprintln(out, renderStatusLine("Updated", statusInfo, formatTime(rec.UpdatedAt), colorize))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newAudioUploadCommand(ctx *commandContext) *cobra.Command {
	var textPath string
	var documentID string
	var documentType string
	var documentName string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "upload <audio-file>",
		Short: "Upload audio and match it against a reference document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			textPath = strings.TrimSpace(textPath)
			documentID = strings.TrimSpace(documentID)
			if textPath == "" && documentID == "" {
				return errors.New("either --text or --document-id is required")
			}
			if textPath != "" && documentID != "" {
				return errors.New("--text and --document-id are mutually exclusive")
			}

			audioFile, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open audio: %w", err)
			}
			defer audioFile.Close()

			req := platform.UploadAudio{
				AudioName:          filepath.Base(args[0]),
				Audio:              audioFile,
				ExistingDocumentID: documentID,
				DocumentType:       documentType,
				DocumentName:       documentName,
			}
			if textPath != "" {
				textFile, err := os.Open(textPath)
				if err != nil {
					return fmt.Errorf("open reference text: %w", err)
				}
				defer textFile.Close()
				req.TextName = filepath.Base(textPath)
				req.Text = textFile
			}

			return ctx.withClient(cmd, func(rt *runtime) error {
				result, err := rt.client.Audio.Upload(cmd.Context(), req)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, result)
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Processing result", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Session", statusInfo, result.SessionID, colorize))
				fmt.Fprintln(out, renderStatusLine("Document", statusInfo, result.ReferenceDocumentID, colorize))
				fmt.Fprintln(out, renderStatusLine("Coverage", coverageKind(result.Coverage),
					fmt.Sprintf("%.1f%% (%d of %d words)", result.Coverage, result.MatchedWords, result.TotalWords), colorize))
				fmt.Fprintln(out, renderStatusLine("Took", statusInfo, fmt.Sprintf("%.1fs", result.ProcessingTime), colorize))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&textPath, "text", "", "Reference text file to match against")
	cmd.Flags().StringVar(&documentID, "document-id", "", "Existing reference document to match against")
	cmd.Flags().StringVar(&documentType, "document-type", "", "Type of a new reference document (sop, script, guideline, checklist)")
	cmd.Flags().StringVar(&documentName, "document-name", "", "Name of a new reference document")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func coverageKind(coverage float64) statusKind {
	switch {
	case coverage >= 90:
		return statusOK
	case coverage >= 60:
		return statusWarn
	default:
		return statusError
	}
}

func newAudioDiarizeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "diarize <audio-id>",
		Short: "Run speaker diarization on an uploaded audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(rt *runtime) error {
				result, err := rt.client.Audio.RunDiarization(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				return writeJSON(cmd, result)
			})
		},
	}
}

func newAudioSpeakersCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "speakers <audio-id>",
		Short: "List speaker name mappings for an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(rt *runtime) error {
				mappings, err := rt.client.Audio.SpeakerMappings(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if jsonOutput {
					if mappings == nil {
						mappings = []platform.SpeakerMapping{}
					}
					return writeJSON(cmd, mappings)
				}
				out := cmd.OutOrStdout()
				if len(mappings) == 0 {
					fmt.Fprintln(out, "No speakers mapped")
					return nil
				}
				rows := make([][]string, 0, len(mappings))
				for _, m := range mappings {
					rows = append(rows, []string{m.SpeakerLabel, m.Name})
				}
				fmt.Fprintln(out, renderTable([]string{"Speaker", "Name"}, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newAudioMapCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "map <audio-id> <speaker-label> <name>",
		Short: "Name a diarized speaker",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			mapping := platform.SpeakerMapping{
				AudioID:      strings.TrimSpace(args[0]),
				SpeakerLabel: strings.TrimSpace(args[1]),
				Name:         strings.TrimSpace(args[2]),
			}
			return ctx.withClient(cmd, func(rt *runtime) error {
				if _, err := rt.client.Audio.MapSpeaker(cmd.Context(), mapping); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Mapped %s to %s\n", mapping.SpeakerLabel, mapping.Name)
				return nil
			})
		},
	}
}

func newAudioDownloadURLCommand(ctx *commandContext) *cobra.Command {
	var diarized bool

	cmd := &cobra.Command{
		Use:   "download-url <session-id>",
		Short: "Print the download address of processed audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(rt *runtime) error {
				sessionID := strings.TrimSpace(args[0])
				var (
					link string
					err  error
				)
				if diarized {
					link, err = rt.client.Audio.DiarizedDownloadURL(sessionID)
				} else {
					link, err = rt.client.Audio.DownloadURL(sessionID)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), link)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&diarized, "diarized", false, "Link to the diarized transcript instead of the audio")
	return cmd
}
