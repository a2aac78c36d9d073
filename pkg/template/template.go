// Package template expands the three substitution tokens an update
// endpoint URL may contain. Expansion is deliberately literal string
// replacement — no templating language, no percent-encoding — so the
// result is predictable enough to validate as a URL in one pass.
package template

import (
	"net/url"
	"strings"

	"github.com/flanksource/commons/logger"

	"github.com/flanksource/selfupdate/pkg/platform"
	"github.com/samber/lo"
)

const (
	tokenCurrentVersion = "{{current_version}}"
	tokenTarget         = "{{target}}"
	tokenArch           = "{{arch}}"
)

// Expand replaces the three tokens in tmpl with currentVersion and the
// probed platform's OS/Arch, then parses the result as an absolute URL.
// Expansion always happens before validation.
func Expand(tmpl, currentVersion string, plat platform.Platform) (*url.URL, error) {
	replacer := strings.NewReplacer(
		tokenCurrentVersion, currentVersion,
		tokenTarget, plat.OS,
		tokenArch, plat.Arch,
	)
	expanded := replacer.Replace(tmpl)

	u, err := url.Parse(expanded)
	if err != nil {
		logger.Warnf("failed to template endpoint %s: %v", tmpl, err)
		return nil, err
	}
	if !u.IsAbs() {
		logger.Warnf("failed to template endpoint %s: %v", tmpl, errNotAbsolute)
		return nil, &url.Error{Op: "parse", URL: expanded, Err: errNotAbsolute}
	}
	logger.V(3).Infof("templated endpoint %s -> %s", tmpl, expanded)
	return u, nil
}

var errNotAbsolute = notAbsoluteError{}

type notAbsoluteError struct{}

func (notAbsoluteError) Error() string { return "expanded endpoint is not an absolute URL" }

// ExpandAll expands every template in tmpls, returning the successfully
// expanded URLs alongside a parallel slice recording the per-template
// error (nil on success) so the orchestrator can report why an endpoint
// was skipped without aborting the whole check.
func ExpandAll(tmpls []string, currentVersion string, plat platform.Platform) ([]*url.URL, []error) {
	urls := make([]*url.URL, len(tmpls))
	errs := make([]error, len(tmpls))
	for i, tmpl := range tmpls {
		u, err := Expand(tmpl, currentVersion, plat)
		urls[i] = u
		errs[i] = err
	}
	return urls, errs
}

// ContainsToken reports whether s still contains one of the three
// substitution tokens — used by tests asserting the round-trip property
// that a fully-expanded URL never retains a token.
func ContainsToken(s string) bool {
	return lo.SomeBy([]string{tokenCurrentVersion, tokenTarget, tokenArch}, func(tok string) bool {
		return strings.Contains(s, tok)
	})
}
