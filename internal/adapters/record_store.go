package adapters

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"athenapt/internal/ports"
	"athenapt/internal/types"
)

const defaultRecordStoreWorkers = 4

// RecordStoreAdapter implements component B against a real upstream HTTP
// archive: it fetches InRelease, optionally verifies its signature, then
// fetches and parses every component/architecture's Packages and Sources
// files, validating each against the release manifest's MD5Sum table.
type RecordStoreAdapter struct {
	HTTP  httpRetryConfig
	Cache string // on-disk cache directory; empty disables caching

	// Keyring, when non-empty, makes an unverifiable InRelease signature
	// a fatal ArchiveError. Leave nil to skip verification (e.g. for an
	// archive mirror with no published signing key).
	Keyring openpgp.EntityList

	Workers int
}

// NewRecordStoreAdapter returns a RecordStoreAdapter with the teacher's
// standard HTTP retry/backoff defaults.
func NewRecordStoreAdapter(cacheDir string, keyring openpgp.EntityList) *RecordStoreAdapter {
	return &RecordStoreAdapter{
		HTTP:    normalizeHTTPConfig(0, 0, 0),
		Cache:   cacheDir,
		Keyring: keyring,
		Workers: defaultRecordStoreWorkers,
	}
}

// Load fetches the release manifest and its referenced Packages/Sources
// files for cfg's components and architecture, returning a populated Cache.
func (a *RecordStoreAdapter) Load(ctx context.Context, cfg types.BaseConfig) (*types.Cache, error) {
	base := trimSlash(cfg.ArchiveURL)
	distPath := fmt.Sprintf("%s/dists/%s", base, cfg.Codename)

	manifest, err := a.loadReleaseManifest(ctx, distPath)
	if err != nil {
		return nil, err
	}

	type fetchJob struct {
		path string
		kind string // "binary" or "source"
	}

	var jobs []fetchJob
	for _, comp := range cfg.Components {
		jobs = append(jobs, fetchJob{path: fmt.Sprintf("%s/binary-%s/Packages.gz", comp, cfg.Arch), kind: "binary"})
		jobs = append(jobs, fetchJob{path: fmt.Sprintf("%s/source/Sources.gz", comp), kind: "source"})
	}

	cache := types.NewCache()
	var mu sync.Mutex
	var wg sync.WaitGroup

	workers := a.Workers
	if workers <= 0 {
		workers = defaultRecordStoreWorkers
	}
	if len(jobs) < workers {
		workers = len(jobs)
	}
	sem := make(chan struct{}, workers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var errOnce sync.Once
	var firstErr error

	for _, job := range jobs {
		job := job
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			records, err := a.fetchControlRecords(ctx, distPath, job.path, manifest)
			if err != nil {
				errOnce.Do(func() { firstErr = err; cancel() })
				return
			}

			mu.Lock()
			for _, rec := range records {
				if job.kind == "binary" {
					bp := binaryFromRecord(rec)
					cache.AddBinary(&bp)
				} else {
					sp := sourceFromRecord(rec)
					cache.AddSource(&sp)
				}
			}
			mu.Unlock()
		}()
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return cache, nil
}

// loadReleaseManifest fetches InRelease (preferred) or falls back to a bare
// Release file, applying clearsign verification when an InRelease is used.
func (a *RecordStoreAdapter) loadReleaseManifest(ctx context.Context, distPath string) (types.ReleaseManifest, error) {
	data, _, err := a.fetchCached(ctx, distPath+"/InRelease")
	if err == nil {
		plaintext, verified, verr := verifyInRelease(data, a.Keyring)
		if verr != nil {
			if len(a.Keyring) > 0 {
				return types.ReleaseManifest{}, errbuilder.New().
					WithCode(errbuilder.CodeFailedPrecondition).
					WithMsg("InRelease signature verification failed").
					WithCause(verr)
			}
			// No keyring configured and the document didn't even parse
			// as clearsigned: fall through to a bare Release file.
		} else {
			manifest, perr := parseReleaseManifest(bytes.NewReader(plaintext))
			if perr != nil {
				return types.ReleaseManifest{}, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg("failed to parse InRelease").
					WithCause(perr)
			}
			manifest.Signed = true
			manifest.Verified = verified
			return manifest, nil
		}
	}

	data, _, err = a.fetchCached(ctx, distPath+"/Release")
	if err != nil {
		return types.ReleaseManifest{}, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("failed to fetch Release or InRelease").
			WithCause(err)
	}
	manifest, err := parseReleaseManifest(bytes.NewReader(data))
	if err != nil {
		return types.ReleaseManifest{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse Release").
			WithCause(err)
	}
	return manifest, nil
}

// fetchControlRecords fetches one compressed control file, validates it
// against the manifest's MD5Sum entry, decompresses, and parses it. A
// cached copy whose md5 no longer matches the manifest is refetched from
// the network once before giving up.
func (a *RecordStoreAdapter) fetchControlRecords(ctx context.Context, distPath, relPath string, manifest types.ReleaseManifest) ([]types.Record, error) {
	url := distPath + "/" + relPath
	data, fromCache, err := a.fetchCached(ctx, url)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("failed to fetch " + relPath).
			WithCause(err)
	}

	entry, ok := manifest.Entry(relPath)
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("release file has no MD5Sum entry for " + relPath)
	}

	if !md5Matches(data, entry.MD5) && fromCache {
		data, err = a.fetchFresh(ctx, url)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg("failed to redownload stale " + relPath).
				WithCause(err)
		}
	}
	if !md5Matches(data, entry.MD5) {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(relPath + " md5 mismatch against release manifest")
	}

	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to decompress " + relPath).
			WithCause(err)
	}
	defer gz.Close()

	return parseDeb822(gz)
}

// fetchCached fetches url, consulting and populating the on-disk cache
// entry named by cacheKey(url). The second return value reports whether the
// cache (rather than the network) served the data.
func (a *RecordStoreAdapter) fetchCached(ctx context.Context, url string) ([]byte, bool, error) {
	key := cacheKey(url)
	if data, ok := readCacheFile(a.Cache, key); ok {
		return data, true, nil
	}

	resp, err := doRequest(ctx, url, a.HTTP)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}

	_ = writeCacheFile(a.Cache, key, data)
	return data, false, nil
}

// fetchFresh bypasses the on-disk cache entirely, re-downloading url and
// overwriting any stale cache entry with the fresh content.
func (a *RecordStoreAdapter) fetchFresh(ctx context.Context, url string) ([]byte, error) {
	resp, err := doRequest(ctx, url, a.HTTP)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	_ = writeCacheFile(a.Cache, cacheKey(url), data)
	return data, nil
}

func md5Matches(data []byte, want string) bool {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]) == want
}

var _ ports.RecordStorePort = (*RecordStoreAdapter)(nil)
