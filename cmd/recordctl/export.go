package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/recordport/recordport/internal/handler/dto"
)

type exportOptions struct {
	adminName string
	fileName  string
	scope     string
	format    string
	encoding  string
	outDir    string
	timeout   time.Duration
}

func newExportCmd(global *globalOptions) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download records as csv, xlsx, json or xml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			path, err := runExport(ctx, http.DefaultClient, global.server, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.adminName, "admin", "", "Owner admin name (required)")
	cmd.Flags().StringVar(&opts.fileName, "file", "", "Imported file name to export (required)")
	cmd.Flags().StringVar(&opts.scope, "scope", "one", "Export scope: one or all")
	cmd.Flags().StringVar(&opts.format, "format", "csv", "Output format: csv, xlsx, json or xml")
	cmd.Flags().StringVar(&opts.encoding, "encoding", "utf-8", "Output charset, or base64 for xml")
	cmd.Flags().StringVar(&opts.outDir, "out", ".", "Directory to save the download in")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Request timeout")
	_ = cmd.MarkFlagRequired("admin")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runExport(ctx context.Context, client *http.Client, server string, opts exportOptions) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/export"
	q := url.Values{}
	q.Set("adminname", opts.adminName)
	q.Set("filename", opts.fileName)
	q.Set("mode_export", opts.scope)
	q.Set("mode_file", opts.format)
	q.Set("encoding", opts.encoding)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request export: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e dto.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			return "", fmt.Errorf("export failed: %s", resp.Status)
		}
		return "", fmt.Errorf("export failed: %s: %s", resp.Status, e.Error)
	}

	name, err := attachmentName(resp.Header.Get("Content-Disposition"))
	if err != nil {
		return "", err
	}

	path := filepath.Join(opts.outDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

var errNoFilename = errors.New("response carries no attachment filename")

// attachmentName extracts a safe base file name from a Content-Disposition header.
func attachmentName(header string) (string, error) {
	if header == "" {
		return "", errNoFilename
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return "", fmt.Errorf("parse content-disposition: %w", err)
	}
	name := filepath.Base(filepath.Clean("/" + params["filename"]))
	if name == "/" || name == "." || name == "" {
		return "", errNoFilename
	}
	return name, nil
}
