package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ironsheep/page-tools-mcp/internal/barcode"
	"github.com/ironsheep/page-tools-mcp/internal/batch"
	"github.com/ironsheep/page-tools-mcp/internal/imaging"
	"github.com/ironsheep/page-tools-mcp/internal/normalizer"
	"github.com/ironsheep/page-tools-mcp/internal/ocr"
	"github.com/ironsheep/page-tools-mcp/internal/server"
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdin/stdout (default)",
		Args:  cobra.NoArgs,
		RunE:  a.runServe,
	}
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	n := a.normalizer()
	srv := server.New(
		server.WithNormalizer(n),
		server.WithBatch(a.adapter(n, "")),
		server.WithOCRLanguage(a.cfg.OCR.Language),
		server.WithLogger(a.log),
		server.WithIO(cmd.InOrStdin(), cmd.OutOrStdout()),
	)
	if err := srv.Run(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (a *app) normalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <input> <output.jpg>",
		Short: "Rectify one page photo to an upright JPEG",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.normalizer().Process(args[0], args[1])
			if err != nil {
				return fmt.Errorf("%s: %w", normalizer.UserMessage(err), err)
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func (a *app) batchCmd() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "batch [--root dir] <file>...",
		Short: "Normalize several photos and print the normalized_images envelope",
		Long: `Normalize several photos. Outputs are written to <root>/normalized and
one result per input is printed as JSON, in input order. A failed photo
carries an error and never stops the others.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploads := make([]batch.Upload, len(args))
			for i, p := range args {
				uploads[i] = batch.FileUpload{Path: p}
			}
			results, err := a.adapter(a.normalizer(), root).NormalizeBatch(uploads)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), &batch.Response{NormalizedImages: results})
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "scratch root directory (default from configuration)")
	return cmd
}

func (a *app) detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file>",
		Short: "Print the detected page corners without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := imaging.Open(args[0])
			if err != nil {
				return err
			}
			cand, ok := a.normalizer().Detector().Detect(img)
			if !ok {
				b := img.Bounds()
				return &normalizer.BoundaryNotFoundError{Path: args[0], Width: b.Dx(), Height: b.Dy()}
			}
			return printJSON(cmd.OutOrStdout(), cand)
		},
	}
}

func (a *app) isbnCmd() *cobra.Command {
	var normalize bool
	cmd := &cobra.Command{
		Use:   "isbn <file>",
		Short: "Decode an ISBN barcode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := imaging.Open(args[0])
			if err != nil {
				return err
			}
			if normalize {
				page, err := a.normalizer().NormalizeImage(img)
				var notFound *normalizer.BoundaryNotFoundError
				switch {
				case err == nil:
					img = page.Image
				case errors.As(err, &notFound):
					a.log.WithField("path", args[0]).Debug("no page found, scanning full photo")
				default:
					return err
				}
			}
			res, err := barcode.ScanISBN(img)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&normalize, "normalize", false, "rectify the page before scanning")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and OCR engine information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "page-mcp %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)

			info := ocr.GetInfo()
			if info.Available {
				fmt.Fprintf(out, "  OCR: %s %s\n", info.Backend, info.Version)
			} else {
				fmt.Fprintf(out, "  OCR: unavailable (%s)\n", info.Error)
			}
			return nil
		},
	}
}
