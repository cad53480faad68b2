package s3

import (
	"bytes"
	"context"
	"dnacore/internal/archive"
	"dnacore/internal/archive/archivetest"
	"errors"
	"net/http"
	"testing"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

func TestMockStoreContract(t *testing.T) {
	archivetest.RunContract(t, NewMockForTests())
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
	store, err := New(context.Background(), Config{Bucket: "designs", Endpoint: "http://localhost:9000", PathStyle: true, AccessKeyID: "a", SecretAccessKey: "b"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.Bucket() != "designs" || store.Driver() != archive.DriverS3 {
		t.Fatalf("unexpected store %+v", store)
	}
}

func TestMapErrorRecognisesStatus404(t *testing.T) {
	resp := &awshttp.ResponseError{ResponseError: &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusNotFound}},
		Err:      errors.New("boom"),
	}}
	if err := mapError("k", resp); !errors.Is(err, archive.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	other := errors.New("denied")
	if err := mapError("k", other); !errors.Is(err, other) {
		t.Fatalf("expected passthrough, got %v", err)
	}
}

func TestDecodeChunked(t *testing.T) {
	got, err := decodeChunked([]byte("3\r\nabc\r\n2;chunk-signature=x\r\nde\r\n0\r\nx-amz-checksum-crc32:AAAA\r\n\r\n"))
	if err != nil || !bytes.Equal(got, []byte("abcde")) {
		t.Fatalf("unexpected decode %q %v", got, err)
	}
	if _, err := decodeChunked([]byte("zz\r\n")); err == nil {
		t.Fatalf("expected malformed size error")
	}
}
