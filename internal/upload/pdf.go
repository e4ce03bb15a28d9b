package upload

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// The server never reads or writes a pdfcpu config directory.
func init() {
	api.DisableConfigDir()
}

// ValidatePDF checks that the file at path parses as a PDF. Relaxed mode
// accepts the small format deviations browser-side PDF generators produce.
func ValidatePDF(path string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.ValidateFile(path, conf); err != nil {
		return fmt.Errorf("upload: invalid pdf: %w", err)
	}
	return nil
}
