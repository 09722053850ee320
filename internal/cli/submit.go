package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/isp/internal/domain/record"
	"github.com/okian/isp/internal/rubric"
)

type submitOptions struct {
	url       string
	scalePath string
	upload    bool
	timeout   time.Duration
}

func newSubmitCommand(g *globalOptions) *cobra.Command {
	opts := &submitOptions{}
	cmd := &cobra.Command{
		Use:   "submit FILE",
		Short: "Score a roster on a running server",
		Long: `Parse a roster locally and send its rows to a server's /api/extract
endpoint, printing the scored result. With --upload the file is stored as the
server's current roster instead.

Examples:
  ispctl submit roster.csv --url http://localhost:9080
  ispctl submit roster.xlsx --upload`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, g, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.url, "url", "http://localhost:9080", "server base URL")
	cmd.Flags().StringVar(&opts.scalePath, "scale", "", "JSON scale file sent with the rows")
	cmd.Flags().BoolVar(&opts.upload, "upload", false, "upload the file as the current roster instead of scoring it")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "request timeout")
	return cmd
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func runSubmit(cmd *cobra.Command, g *globalOptions, opts *submitOptions, path string) error {
	if err := checkFormat(g.output); err != nil {
		return err
	}
	client := &http.Client{Timeout: opts.timeout}
	base := strings.TrimRight(opts.url, "/")

	if opts.upload {
		return uploadFile(cmd, client, base, path)
	}

	rows, err := readRoster(path)
	if err != nil {
		return err
	}
	body := struct {
		Data  []record.Raw  `json:"data"`
		Scale *rubric.Scale `json:"scale,omitempty"`
	}{Data: rows}
	if opts.scalePath != "" {
		if body.Scale, err = readScale(opts.scalePath); err != nil {
			return err
		}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, base+"/api/extract", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var env envelope
	if err := do(client, req, &env); err != nil {
		return err
	}
	return writeEnvelope(cmd.OutOrStdout(), g.output, env)
}

func uploadFile(cmd *cobra.Command, client *http.Client, base, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open roster: %w", err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, base+"/api/upload", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp map[string]any
	if err := do(client, req, &resp); err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), resp)
}

func do(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Message == "" {
			return fmt.Errorf("server returned %s", resp.Status)
		}
		return fmt.Errorf("server returned %d %s: %s", resp.StatusCode, apiErr.Code, apiErr.Message)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
