package tilearchive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gocloud.dev/blob"
)

// RangeProvider is the C6 byte-range collaborator: given (offset, length)
// it returns bytes, returning fewer than length only when EOF truncates
// the request.
type RangeProvider interface {
	GetRange(ctx context.Context, offset, length uint64) ([]byte, error)
	Close() error
}

// MemoryRangeProvider serves ranges out of an in-memory buffer. Useful
// for tests and for archives assembled entirely in memory.
type MemoryRangeProvider struct {
	Data []byte
}

func (m MemoryRangeProvider) GetRange(_ context.Context, offset, length uint64) ([]byte, error) {
	if offset >= uint64(len(m.Data)) {
		return nil, nil
	}
	end := offset + length
	if end > uint64(len(m.Data)) {
		end = uint64(len(m.Data))
	}
	return m.Data[offset:end], nil
}

func (m MemoryRangeProvider) Close() error { return nil }

// FileRangeProvider serves ranges out of an *os.File via ReadAt.
type FileRangeProvider struct {
	File *os.File
}

func (f FileRangeProvider) GetRange(_ context.Context, offset, length uint64) ([]byte, error) {
	buf := make([]byte, length)
	n, err := f.File.ReadAt(buf, int64(offset))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("tilearchive: range read: %w", err)
	}
	return buf[:n], nil
}

func (f FileRangeProvider) Close() error {
	return f.File.Close()
}

// HTTPClient lets callers substitute a mock client in tests, matching the
// collaborator's own Do(*http.Request) shape.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPRangeProvider fetches byte ranges via HTTP Range requests.
type HTTPRangeProvider struct {
	BaseURL string
	Client  HTTPClient
}

func (h HTTPRangeProvider) GetRange(ctx context.Context, offset, length uint64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tilearchive: range request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("tilearchive: range request returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (h HTTPRangeProvider) Close() error { return nil }

// BucketRangeProvider wraps a gocloud.dev/blob.Bucket, giving the reader
// access to every driver gocloud supports (S3, GCS, Azure blob, local
// file, in-memory) behind one interface.
type BucketRangeProvider struct {
	Bucket *blob.Bucket
	Key    string
}

func (b BucketRangeProvider) GetRange(ctx context.Context, offset, length uint64) ([]byte, error) {
	r, err := b.Bucket.NewRangeReader(ctx, b.Key, int64(offset), int64(length), nil)
	if err != nil {
		return nil, fmt.Errorf("tilearchive: bucket range read: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (b BucketRangeProvider) Close() error {
	return b.Bucket.Close()
}

// NormalizeLocation splits a user-supplied path or URL into a bucket URL
// and an in-bucket key, defaulting bare paths to the local filesystem.
func NormalizeLocation(location string) (bucketURL, key string, err error) {
	if strings.HasPrefix(location, "http") {
		u, err := url.Parse(location)
		if err != nil {
			return "", "", err
		}
		dir, file := path.Split(u.Path)
		dir = strings.TrimSuffix(dir, "/")
		return u.Scheme + "://" + u.Host + dir, file, nil
	}
	if strings.Contains(location, "://") {
		i := strings.LastIndex(location, "/")
		return location[:i], location[i+1:], nil
	}
	fileProtocol := "file://"
	if string(os.PathSeparator) != "/" {
		fileProtocol += "/"
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return "", "", err
	}
	return fileProtocol + filepath.ToSlash(filepath.Dir(abs)), filepath.Base(abs), nil
}

// OpenRangeProvider resolves a bucket URL into a concrete RangeProvider,
// dispatching on scheme exactly the way a bucket would be opened.
func OpenRangeProvider(ctx context.Context, bucketURL, key string) (RangeProvider, error) {
	if strings.HasPrefix(bucketURL, "http") {
		return HTTPRangeProvider{BaseURL: bucketURL + "/" + key, Client: http.DefaultClient}, nil
	}
	if strings.HasPrefix(bucketURL, "file") {
		fileProtocol := "file://"
		if string(os.PathSeparator) != "/" {
			fileProtocol += "/"
		}
		dir := strings.Replace(bucketURL, fileProtocol, "", 1)
		f, err := os.Open(filepath.Join(filepath.FromSlash(dir), key))
		if err != nil {
			return nil, err
		}
		return FileRangeProvider{File: f}, nil
	}
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	return BucketRangeProvider{Bucket: bucket, Key: key}, nil
}
