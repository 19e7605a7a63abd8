package git

import (
	"strings"

	"git.home.luguber.info/inful/pluginbuild/internal/foundation/errors"
)

// ClassifyGitError translates go-git errors into ClassifiedErrors.
func ClassifyGitError(err error, op string, url string) error {
	if err == nil {
		return nil
	}

	if _, ok := errors.AsClassified(err); ok {
		return err
	}

	l := strings.ToLower(err.Error())
	category := errors.CategoryGit
	message := "git " + op + " failed"
	switch {
	case strings.Contains(l, "repository not found") || strings.Contains(l, "couldn't find remote ref") || strings.Contains(l, "reference not found"):
		category = errors.CategoryNotFound
		message = "git " + op + ": revision or repository not found"
	case strings.Contains(l, "unsupported protocol") || strings.Contains(l, "protocol not supported"):
		category = errors.CategoryConfig
	}

	return errors.WrapError(err, category, message).
		Fatal().
		WithContext("op", op).
		WithContext("url", url).
		Build()
}
