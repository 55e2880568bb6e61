package walletstore

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/paperwall/paperwall-agent/interfaces"
)

// StoreFactory creates wallet stores from location URIs.
type StoreFactory struct {
	log *slog.Logger
}

// NewStoreFactory creates a factory.
func NewStoreFactory(log *slog.Logger) *StoreFactory {
	return &StoreFactory{log: log}
}

// StoreFor creates a wallet store from a location URI.
//
// Supported schemes:
//   - file:///path/to/wallet.json
//   - s3://bucket/prefix?region=us-east-1[&endpoint=...]
//   - vault://host:8200/mount/path[?scheme=http]
//
// Returns an error for invalid URIs or unsupported schemes.
func (f *StoreFactory) StoreFor(locationURI string) (interfaces.WalletStore, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet location URI %q: %w", locationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return f.createFileStore(u)
	case "s3":
		return f.createS3Store(u)
	case "vault":
		return f.createVaultStore(u)
	default:
		return nil, fmt.Errorf("unsupported wallet store scheme: %s", u.Scheme)
	}
}

func (f *StoreFactory) createFileStore(u *url.URL) (interfaces.WalletStore, error) {
	path := u.Path
	if u.Host != "" {
		// Accept the common file://relative/path mistake.
		path = u.Host + u.Path
	}
	if path == "" {
		return nil, fmt.Errorf("file wallet URI is missing a path")
	}
	return NewFileStore(path, f.log)
}

func (f *StoreFactory) createS3Store(u *url.URL) (interfaces.WalletStore, error) {
	bucket := u.Host
	if bucket == "" {
		return nil, fmt.Errorf("s3 wallet URI is missing a bucket")
	}
	region := u.Query().Get("region")
	if region == "" {
		return nil, fmt.Errorf("s3 wallet URI is missing the region parameter")
	}
	prefix := strings.Trim(u.Path, "/")
	endpoint := u.Query().Get("endpoint")
	return NewS3Store(bucket, prefix, region, endpoint, f.log)
}

func (f *StoreFactory) createVaultStore(u *url.URL) (interfaces.WalletStore, error) {
	if u.Host == "" {
		return nil, fmt.Errorf("vault wallet URI is missing a server address")
	}
	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("vault wallet URI must be vault://host:port/mount/path")
	}

	scheme := u.Query().Get("scheme")
	if scheme == "" {
		scheme = "https"
	}
	address := fmt.Sprintf("%s://%s", scheme, u.Host)
	return NewVaultStore(address, parts[0], parts[1], f.log)
}
