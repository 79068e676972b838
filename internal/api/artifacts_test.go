package api

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/module-registry/module-registry/internal/artifacts"
)

var versionCols = []string{"id", "provider_id", "version", "created_at", "updated_at"}

// expectVersionPath queues the four lookups that resolve
// acme/vpc/aws/1.2.0 down to a version row.
func expectVersionPath(mock sqlmock.Sqlmock) {
	now := time.Now()
	mock.ExpectQuery("SELECT.*FROM organizations.*WHERE name").
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows(entityCols).AddRow(orgID, "acme", now, now))
	mock.ExpectQuery("SELECT.*FROM modules.*WHERE organization_id").
		WithArgs(orgID, "vpc").
		WillReturnRows(sqlmock.NewRows(moduleCols).AddRow(moduleID, orgID, "vpc", now, now))
	mock.ExpectQuery("SELECT.*FROM providers.*WHERE module_id").
		WithArgs(moduleID, "aws").
		WillReturnRows(sqlmock.NewRows(providerCols).AddRow(providerID, moduleID, "aws", now, now))
	mock.ExpectQuery("SELECT.*FROM versions.*WHERE provider_id").
		WithArgs(providerID, "1.2.0").
		WillReturnRows(sqlmock.NewRows(versionCols).AddRow(versionID, providerID, "1.2.0", now, now))
}

const versionBase = "/api/v1/organizations/acme/modules/vpc/providers/aws/versions/1.2.0"

// buildArchive produces a small well-formed tar.gz payload.
func buildArchive(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	content := []byte("module \"vpc\" {}\n")
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "main.tf", Mode: 0o644, Size: int64(len(content))}))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func multipartUpload(t *testing.T, target, filename string, payload []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// storeObject places an artifact object directly into local storage.
func storeObject(t *testing.T, basePath string, payload []byte) string {
	t.Helper()
	objectPath := filepath.Join(basePath, "artifacts", versionID)
	require.NoError(t, os.MkdirAll(filepath.Dir(objectPath), 0o750))
	require.NoError(t, os.WriteFile(objectPath, payload, 0o640))
	return objectPath
}

func TestDownload(t *testing.T) {
	router, mock, cfg := newTestRouterWithConfig(t)
	expectVersionPath(mock)
	storeObject(t, cfg.Storage.Local.BasePath, buildArchive(t))

	w := doRequest(router, httptest.NewRequest(http.MethodGet, versionBase+"/download", nil))
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.Equal(t, "http://registry.test/api/v1/files/artifacts/"+versionID,
		w.Header().Get("X-Terraform-Get"))
}

func TestDownload_JSONGrant(t *testing.T) {
	router, mock, cfg := newTestRouterWithConfig(t)
	expectVersionPath(mock)
	storeObject(t, cfg.Storage.Local.BasePath, buildArchive(t))

	req := httptest.NewRequest(http.MethodGet, versionBase+"/download", nil)
	req.Header.Set("Accept", "application/json")
	w := doRequest(router, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Contains(t, body["url"], "/api/v1/files/artifacts/"+versionID)
	assert.Equal(t, "acme-vpc-aws-1.2.0.tar.gz", body["filename"])
}

func TestDownload_NoArtifact(t *testing.T) {
	router, mock := newTestRouter(t)
	expectVersionPath(mock)

	w := doRequest(router, httptest.NewRequest(http.MethodGet, versionBase+"/download", nil))
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestUpload(t *testing.T) {
	router, mock, cfg := newTestRouterWithConfig(t)
	expectVersionPath(mock)

	w := doRequest(router, multipartUpload(t, versionBase+"/upload", "vpc.tar.gz", buildArchive(t)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(t, w)
	checksum, _ := body["checksum"].(string)
	assert.Len(t, checksum, 64)
	assert.Equal(t, artifacts.Fingerprint("acme", "vpc", "aws", "1.2.0"), body["fingerprint"])

	stored := filepath.Join(cfg.Storage.Local.BasePath, "artifacts", versionID)
	assert.FileExists(t, stored)
}

func TestUpload_UnsupportedExtension(t *testing.T) {
	router, mock := newTestRouter(t)
	expectVersionPath(mock)

	w := doRequest(router, multipartUpload(t, versionBase+"/upload", "vpc.exe", []byte("MZ")))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code, w.Body.String())
}

func TestUpload_CorruptArchive(t *testing.T) {
	router, mock := newTestRouter(t)
	expectVersionPath(mock)

	w := doRequest(router, multipartUpload(t, versionBase+"/upload", "vpc.tar.gz", []byte("not gzip")))
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestUpload_MissingFile(t *testing.T) {
	router, mock := newTestRouter(t)
	expectVersionPath(mock)

	w := doRequest(router, httptest.NewRequest(http.MethodPost, versionBase+"/upload", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestUpload_PresignUnsupportedOnLocal(t *testing.T) {
	router, mock := newTestRouter(t)
	expectVersionPath(mock)

	w := doRequest(router, httptest.NewRequest(http.MethodPost, versionBase+"/upload?presign=true", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code, w.Body.String())
}

func TestServeFile(t *testing.T) {
	router, _, cfg := newTestRouterWithConfig(t)
	payload := buildArchive(t)
	storeObject(t, cfg.Storage.Local.BasePath, payload)

	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/files/artifacts/"+versionID, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, payload, w.Body.Bytes())
}

func TestServeFile_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/files/artifacts/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteVersion_RemovesArtifact(t *testing.T) {
	router, mock, cfg := newTestRouterWithConfig(t)
	expectVersionPath(mock)
	mock.ExpectExec("DELETE FROM versions").
		WithArgs(versionID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	objectPath := storeObject(t, cfg.Storage.Local.BasePath, []byte("payload"))

	w := doRequest(router, httptest.NewRequest(http.MethodDelete, versionBase, nil))
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.NoFileExists(t, objectPath, "artifact object must be removed with the version")
}
