package selfupdate

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flanksource/clicky/task"
	selferrors "github.com/flanksource/selfupdate/pkg/errors"
	"github.com/flanksource/selfupdate/pkg/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeyPair(t *testing.T) (pub ed25519.PublicKey, priv ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return
}

func encodeKeyBlob(keyID [8]byte, pub ed25519.PublicKey) string {
	raw := append([]byte{'E', 'd'}, keyID[:]...)
	raw = append(raw, pub...)
	return base64.StdEncoding.EncodeToString(raw)
}

func encodeSigText(keyID [8]byte, sig []byte) string {
	raw := append([]byte{'E', 'd'}, keyID[:]...)
	raw = append(raw, sig...)
	return base64.StdEncoding.EncodeToString(raw) + "\n"
}

func TestCheckForUpdate_FindsNewerRelease(t *testing.T) {
	pub, _ := testKeyPair(t)
	keyID := [8]byte{9, 9, 9, 9, 9, 9, 9, 9}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"version":"2.0.0","url":"%s/artifact","signature":"sig","format":"appimage"}`, "http://ignored")
	}))
	defer srv.Close()

	version, cfg, err := New("1.0.0",
		WithEndpoints(srv.URL+"/check"),
		WithPubkey(encodeKeyBlob(keyID, pub)),
	)
	require.NoError(t, err)

	result, err := CheckForUpdate(context.Background(), version, cfg, &task.Task{})
	require.NoError(t, err)
	require.NotNil(t, result.Update)
	assert.Equal(t, "2.0.0", result.Update.Record.Version.String())
}

func TestCheckForUpdate_NoUpdateWhenVersionNotNewer(t *testing.T) {
	pub, _ := testKeyPair(t)
	keyID := [8]byte{1, 1, 1, 1, 1, 1, 1, 1}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"version":"1.0.0","url":"http://x/artifact","signature":"sig","format":"appimage"}`)
	}))
	defer srv.Close()

	version, cfg, err := New("1.0.0",
		WithEndpoints(srv.URL+"/check"),
		WithPubkey(encodeKeyBlob(keyID, pub)),
	)
	require.NoError(t, err)

	result, err := CheckForUpdate(context.Background(), version, cfg, &task.Task{})
	require.NoError(t, err)
	assert.Nil(t, result.Update)
	require.Len(t, result.Attempts, 1)
	assert.NoError(t, result.Attempts[0].Err)
}

func TestCheckForUpdate_NetworkFailureAborts(t *testing.T) {
	pub, _ := testKeyPair(t)
	keyID := [8]byte{1, 1, 1, 1, 1, 1, 1, 1}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	version, cfg, err := New("1.0.0",
		WithEndpoints(srv.URL+"/check"),
		WithPubkey(encodeKeyBlob(keyID, pub)),
	)
	require.NoError(t, err)

	_, err = CheckForUpdate(context.Background(), version, cfg, &task.Task{})
	require.Error(t, err)
	assert.True(t, selferrors.Is(err, selferrors.Network))
}

func TestNew_RejectsEmptyEndpoints(t *testing.T) {
	_, _, err := New("1.0.0", WithPubkey("x"))
	require.Error(t, err)
	assert.True(t, selferrors.Is(err, selferrors.Config))
}

func TestUpdate_DownloadAndInstall_AppImage(t *testing.T) {
	pub, priv := testKeyPair(t)
	keyID := [8]byte{3, 3, 3, 3, 3, 3, 3, 3}

	plat, err := platform.Current()
	require.NoError(t, err)
	if plat.OS != "linux" {
		t.Skip("AppImage relaunch-free install path only exercised on linux")
	}

	dir := t.TempDir()
	execPath := dir + "/MyApp.AppImage"
	require.NoError(t, writeFile(execPath, "old contents", 0o755))

	archive := buildTestTarGz(t, map[string]string{"MyApp.AppImage": "new contents"})
	sig := ed25519.Sign(priv, archive)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/check" {
			fmt.Fprintf(w, `{"version":"2.0.0","url":"%s/artifact","signature":%q,"format":"appimage"}`, "http://"+r.Host, encodeSigText(keyID, sig))
			return
		}
		w.Write(archive)
	}))
	defer srv.Close()

	version, cfg, err := New("1.0.0",
		WithEndpoints(srv.URL+"/check"),
		WithPubkey(encodeKeyBlob(keyID, pub)),
		WithExecutablePath(execPath),
	)
	require.NoError(t, err)

	result, err := CheckForUpdate(context.Background(), version, cfg, &task.Task{})
	require.NoError(t, err)
	require.NotNil(t, result.Update)

	err = result.Update.DownloadAndInstall(context.Background(), nil, &task.Task{})
	require.NoError(t, err)
	assert.Equal(t, StateInstalled, result.Update.State())

	got, err := readFile(execPath)
	require.NoError(t, err)
	assert.Equal(t, "new contents", got)
}
