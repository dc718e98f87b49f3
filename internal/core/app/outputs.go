package app

import (
	"fmt"

	"reexmap/internal/core/errors"
	"reexmap/internal/engine/resolver"
	"reexmap/internal/shared/util"
	"reexmap/internal/ui/report"
)

// WriteOutputs renders every configured report format and writes each
// file atomically. Returns the paths written, in JSON/Markdown/TSV
// order.
func (a *App) WriteOutputs(result resolver.PackageReport) ([]string, error) {
	out := a.Config.Output
	written := make([]string, 0, 3)

	if target := out.Resolve(out.JSON); target != "" {
		data, err := report.NewJSONGenerator().Generate(result)
		if err != nil {
			return written, errors.Wrap(err, errors.CodeInternal, "generate JSON report")
		}
		if err := util.WriteFileAtomic(target, []byte(data), 0o644); err != nil {
			return written, errors.Wrap(err, errors.CodeStorageError, fmt.Sprintf("write JSON report %q", target))
		}
		written = append(written, target)
	}

	if target := out.Resolve(out.Markdown); target != "" {
		md, err := report.NewMarkdownGenerator().Generate(result)
		if err != nil {
			return written, errors.Wrap(err, errors.CodeInternal, "generate Markdown report")
		}
		if err := util.WriteFileAtomic(target, []byte(md), 0o644); err != nil {
			return written, errors.Wrap(err, errors.CodeStorageError, fmt.Sprintf("write Markdown report %q", target))
		}
		written = append(written, target)
	}

	if target := out.Resolve(out.TSV); target != "" {
		tsv, err := report.NewTSVGenerator().Generate(result)
		if err != nil {
			return written, errors.Wrap(err, errors.CodeInternal, "generate TSV report")
		}
		if err := util.WriteFileAtomic(target, []byte(tsv), 0o644); err != nil {
			return written, errors.Wrap(err, errors.CodeStorageError, fmt.Sprintf("write TSV report %q", target))
		}
		written = append(written, target)
	}

	return written, nil
}
