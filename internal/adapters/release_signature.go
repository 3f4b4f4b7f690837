package adapters

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
)

// verifyInRelease checks an InRelease document's clearsign wrapper against
// keyring and returns the unwrapped control-file bytes. When keyring is
// empty, verification is skipped and the document is merely unwrapped —
// callers gate that behavior on configuration, since an unverified
// InRelease is an ArchiveError unless signature checking was explicitly
// disabled.
func verifyInRelease(data []byte, keyring openpgp.EntityList) ([]byte, bool, error) {
	block, _ := clearsign.Decode(data)
	if block == nil {
		return nil, false, fmt.Errorf("InRelease is not a valid clearsigned document")
	}

	if len(keyring) == 0 {
		return block.Plaintext, false, nil
	}

	_, err := openpgp.CheckDetachedSignature(keyring, bytes.NewReader(block.Bytes), block.ArmoredSignature.Body, nil)
	if err != nil {
		return nil, false, fmt.Errorf("InRelease signature verification failed: %w", err)
	}
	return block.Plaintext, true, nil
}

// loadKeyring reads an armored OpenPGP public keyring from r. A nil or
// empty keyring (zero entities) disables verification entirely.
func loadKeyring(r io.Reader) (openpgp.EntityList, error) {
	if r == nil {
		return nil, nil
	}
	return openpgp.ReadArmoredKeyRing(r)
}

// LoadKeyringFile reads an armored OpenPGP public keyring from a file path.
// An empty path returns a nil keyring, disabling InRelease verification.
func LoadKeyringFile(path string) (openpgp.EntityList, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return loadKeyring(f)
}
