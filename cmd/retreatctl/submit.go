package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"retreat/internal/form"
	"retreat/internal/notice"
	"retreat/internal/registration"
	"retreat/internal/submitclient"
)

const defaultHomeURL = "https://oog.lovable.app/"

var (
	submitFile     string
	submitPhoto    string
	submitEndpoint string
	submitHomeURL  string
	submitTimeout  time.Duration
	submitMaxPhoto int64
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a registration",
	Long: `Submit a registration read from a YAML file.

The file uses the form's field names:

  fullName: Ada Obi
  gender: Female
  age: "29"
  phone: "08012345678"
  email: ada@example.com
  location: Lagos
  affiliation: RDG
  confirmation: "true"

Examples:
  retreatctl submit --file ada.yaml
  retreatctl submit --file ada.yaml --photo ada.jpg --endpoint http://localhost:8081/functions/v1/submit-registration`,
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVarP(&submitFile, "file", "f", "", "YAML file with the registration fields")
	submitCmd.Flags().StringVarP(&submitPhoto, "photo", "p", "", "optional photo to attach")
	submitCmd.Flags().StringVarP(&submitEndpoint, "endpoint", "e", envOr("RETREAT_ENDPOINT", "http://localhost:8081/functions/v1/submit-registration"),
		"registration endpoint")
	submitCmd.Flags().StringVar(&submitHomeURL, "home-url", defaultHomeURL, "link offered after a successful registration")
	submitCmd.Flags().DurationVar(&submitTimeout, "timeout", 60*time.Second, "give up on the endpoint after this long")
	submitCmd.Flags().Int64Var(&submitMaxPhoto, "max-photo-bytes", registration.DefaultMaxPhotoBytes, "largest photo accepted")
	_ = submitCmd.MarkFlagRequired("file")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	values, err := loadForm(submitFile)
	if err != nil {
		return err
	}
	var photo *registration.Photo
	if submitPhoto != "" {
		if photo, err = loadPhoto(submitPhoto); err != nil {
			return err
		}
	}

	bus := notice.NewBus()
	presenter := notice.NewPresenter(cmd.OutOrStdout(), submitHomeURL)
	shown := make(chan error, 1)
	notices := bus.Subscribe(cmd.Context())
	go func() { shown <- presenter.Run(context.Background(), notices) }()

	ctrl := form.NewController(registration.NewSchema(submitMaxPhoto), submitclient.New(submitEndpoint), bus, log)
	ctrl.Load(values)
	ctrl.SetPhoto(photo)

	ctx, cancel := context.WithTimeout(cmd.Context(), submitTimeout)
	defer cancel()
	_, submitErr := ctrl.Submit(ctx)

	bus.Close()
	if err := <-shown; err != nil {
		return err
	}

	var fieldErrs registration.FieldErrors
	if errors.As(submitErr, &fieldErrs) {
		printFieldErrors(cmd.ErrOrStderr(), fieldErrs)
	}
	return submitErr
}

func loadForm(path string) (registration.Form, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return registration.Form{}, fmt.Errorf("read %s: %w", path, err)
	}
	var f registration.Form
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return registration.Form{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}

func loadPhoto(path string) (*registration.Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return &registration.Photo{
		Filename:    filepath.Base(path),
		ContentType: ct,
		Data:        data,
	}, nil
}

func printFieldErrors(w io.Writer, errs registration.FieldErrors) {
	for _, f := range append(slices.Clone(registration.Fields), registration.FieldPhoto) {
		if reason, ok := errs[f]; ok {
			fmt.Fprintf(w, "  %s: %s\n", f, reason)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
