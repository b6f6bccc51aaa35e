package services

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/legalconnect/legalconnect-api/testutil"
	"gorm.io/gorm"
)

// setupServiceTest returns a fresh database and installs a recording notification publisher
func setupServiceTest(t *testing.T) (*gorm.DB, *MockPublisher) {
	t.Helper()

	db := testutil.NewTestDB(t)

	original := GetNotificationPublisher()
	publisher := NewMockPublisher()
	publisher.SetAsMockForTesting()
	t.Cleanup(func() { SetNotificationPublisher(original) })

	return db, publisher
}

// useMockStorage installs S3 storage backed by an in-memory bucket
func useMockStorage(t *testing.T) *MockS3Service {
	t.Helper()

	original := GetFileStorage()
	bucket := NewMockS3Service()
	SetFileStorage(NewS3Storage(bucket))
	t.Cleanup(func() { SetFileStorage(original) })

	return bucket
}

// testFileHeader builds a multipart file header the way a parsed request would carry it
func testFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", "application/octet-stream")
	part, err := writer.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatal(err)
	}
	writer.Close()

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(int64(len(content)) + 1024)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["file"][0]
}
