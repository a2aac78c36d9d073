package template

import (
	"testing"

	"github.com/flanksource/selfupdate/pkg/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand_ReplacesAllTokens(t *testing.T) {
	plat := platform.Platform{OS: "linux", Arch: "x86_64"}
	u, err := Expand("https://releases.example.com/{{target}}/{{arch}}/update.json?v={{current_version}}", "1.0.0", plat)
	require.NoError(t, err)
	assert.Equal(t, "https://releases.example.com/linux/x86_64/update.json?v=1.0.0", u.String())
	assert.False(t, ContainsToken(u.String()))
}

func TestExpand_RoundTripNoTokensRemain(t *testing.T) {
	plat := platform.Platform{OS: "windows", Arch: "aarch64"}
	templates := []string{
		"https://h/{{target}}-{{arch}}",
		"https://h/static",
		"https://h/{{current_version}}",
	}
	for _, tmpl := range templates {
		u, err := Expand(tmpl, "2.3.4", plat)
		require.NoError(t, err)
		assert.False(t, ContainsToken(u.String()), "expansion of %q retained a token", tmpl)
	}
}

func TestExpand_InvalidURLAfterExpansion(t *testing.T) {
	plat := platform.Platform{OS: "linux", Arch: "x86_64"}
	_, err := Expand("not-a-url/{{target}}", "1.0.0", plat)
	require.Error(t, err)
}

func TestExpand_RelativeURLRejected(t *testing.T) {
	plat := platform.Platform{OS: "linux", Arch: "x86_64"}
	_, err := Expand("/relative/{{target}}", "1.0.0", plat)
	require.Error(t, err)
}

func TestExpandAll_RecordsPerEndpointErrors(t *testing.T) {
	plat := platform.Platform{OS: "linux", Arch: "x86_64"}
	urls, errs := ExpandAll([]string{
		"https://good.example.com/{{target}}",
		"https://h/%zz{{target}}",
	}, "1.0.0", plat)

	require.Len(t, urls, 2)
	require.Len(t, errs, 2)
	assert.NoError(t, errs[0])
	assert.NotNil(t, urls[0])
	assert.Error(t, errs[1])
}
