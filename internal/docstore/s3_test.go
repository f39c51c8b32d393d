package docstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"
)

// fakeS3 honours If-Match / If-None-Match the way S3 does.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	etags   map[string]int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, etags: map[string]int{}}
}

func (f *fakeS3) etag(key string) string {
	return fmt.Sprintf("\"%d\"", f.etags[key])
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data)), ETag: aws.String(f.etag(aws.ToString(in.Key)))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	_, exists := f.objects[key]
	if aws.ToString(in.IfNoneMatch) == "*" && exists {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}
	}
	if in.IfMatch != nil {
		if !exists {
			return nil, &smithy.GenericAPIError{Code: "NoSuchKey"}
		}
		if aws.ToString(in.IfMatch) != f.etag(key) {
			return nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}
		}
	}
	data, _ := io.ReadAll(in.Body)
	f.objects[key] = data
	f.etags[key]++
	return &s3.PutObjectOutput{ETag: aws.String(f.etag(key))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestS3Store(t *testing.T) {
	exerciseStore(t, newS3Store(newFakeS3(), "bucket", "/auth/system/"))
}

func TestS3StoreKeysAndListing(t *testing.T) {
	fake := newFakeS3()
	accounts := newS3Store(fake, "bucket", "auth/accounts")
	system := newS3Store(fake, "bucket", "auth/system")
	ctx := context.Background()

	_, err := accounts.Create(ctx, "0000000000000001.json", []byte(`{}`))
	require.NoError(t, err)
	_, err = system.Create(ctx, "AuthTokens.json", []byte(`{}`))
	require.NoError(t, err)

	require.Contains(t, fake.objects, "auth/accounts/0000000000000001.json")
	require.Equal(t, []string{"0000000000000001.json"}, collectNames(t, accounts))
	require.Equal(t, []string{"AuthTokens.json"}, collectNames(t, system))
}
