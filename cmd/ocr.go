package cmd

import (
	stderrors "errors"
	"fmt"
	"strings"

	"clipkind/pkg/errors"
	"clipkind/pkg/filter"
	"clipkind/pkg/models"
	"clipkind/pkg/ocr"
	"clipkind/pkg/progress"
	"clipkind/pkg/service"

	"github.com/spf13/cobra"
)

var (
	ocrLanguage      string
	ocrMinConfidence float64
)

// LanguagesOutput represents OCR availability for structured output
type LanguagesOutput struct {
	Available bool     `json:"available" yaml:"available"`
	Engine    string   `json:"engine,omitempty" yaml:"engine,omitempty"`
	Languages []string `json:"languages" yaml:"languages"`
}

var ocrCmd = &cobra.Command{
	Use:   "ocr",
	Short: "Recognize text in the clipboard image",
	Long: `Run OCR on the clipboard image and print the recognized text with its
confidence (0-1). Text lines below --min-confidence are dropped.`,
	Example: `  # Recognize with the configured language
  clipkind ocr

  # German and English, keep only confident lines
  clipkind ocr --lang deu+eng --min-confidence 0.6`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ocrMinConfidence < 0 || ocrMinConfidence > 1 {
			return errors.InvalidArgument(fmt.Sprintf("--min-confidence must be between 0 and 1, got %g", ocrMinConfidence))
		}

		svc, err := newService()
		if err != nil {
			return err
		}
		ctx, cancel := GetContext()
		defer cancel()

		var result models.OcrResult
		err = progress.WithSpinner(spinnerWriter(cmd), "Recognizing text...", func() error {
			var err error
			opts := ocr.Options{Language: ocrLanguage}
			if cmd.Flags().Changed("min-confidence") {
				opts.MinConfidence = models.Ptr(ocrMinConfidence)
			}
			result, err = svc.PerformOCR(ctx, opts)
			return err
		})
		if err != nil {
			return suggestLanguage(svc, err)
		}

		output := newOutput(cmd)
		if output.IsStructured() {
			return output.Write(result)
		}
		output.Printf("%s\n\n", strings.TrimRight(result.Text, "\n"))
		output.Printf("Confidence: %.1f%%\n", result.Confidence*100)
		return nil
	},
}

var ocrLanguagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List installed OCR languages",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}

		availability := svc.IsOCRAvailable()
		langs, err := svc.GetSupportedOCRLanguages()
		if err != nil {
			return err
		}

		output := newOutput(cmd)
		if output.IsStructured() {
			return output.Write(LanguagesOutput{
				Available: availability.Available,
				Engine:    availability.Engine,
				Languages: langs,
			})
		}

		if !availability.Available {
			output.Printf("OCR: not available\n")
			if availability.Engine != "" {
				output.Printf("  Engine: %s (no language data found)\n", availability.Engine)
			}
			return nil
		}
		output.Printf("OCR: %s\n", availability.Engine)
		output.Printf("  Languages: %s\n", strings.Join(langs, ", "))
		return nil
	},
}

// suggestLanguage adds a spelling hint to engine init failures caused by a
// language that is not installed.
func suggestLanguage(svc *service.Service, err error) error {
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindEngineInit {
		return err
	}
	requested := ocrLanguage
	if requested == "" {
		requested = settings.OCR.Language
	}
	langs, langErr := svc.GetSupportedOCRLanguages()
	if langErr != nil || len(langs) == 0 {
		return err
	}

	installed := make(map[string]bool, len(langs))
	for _, l := range langs {
		installed[l] = true
	}
	for _, lang := range strings.Split(requested, "+") {
		if lang == "" || installed[lang] {
			continue
		}
		if best, ok := filter.Closest(lang, langs, 0.5); ok {
			e.Suggestion = fmt.Sprintf("Language %q is not installed. Did you mean %q?", lang, best)
		} else {
			e.Suggestion = fmt.Sprintf("Language %q is not installed. Installed: %s", lang, strings.Join(langs, ", "))
		}
		break
	}
	return e
}

func init() {
	ocrCmd.Flags().StringVarP(&ocrLanguage, "lang", "l", "", "Recognition language, '+' joins several (default from config)")
	ocrCmd.Flags().Float64Var(&ocrMinConfidence, "min-confidence", 0, "Drop text lines below this confidence (0-1)")

	ocrCmd.AddCommand(ocrLanguagesCmd)
}
