package syncstate

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"proposal_sync/internal/proposals"
	"proposal_sync/platform/apperr"
)

type fileState struct {
	Cursor string `json:"cursor"`
}

// FileStore keeps the cursor in a small JSON document.
type FileStore struct {
	path string
}

// NewFileStore creates a store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the cursor.
func (s *FileStore) Load(context.Context) (time.Time, bool, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, apperr.State("read state file", err).WithOp("load")
	}

	var st fileState
	if err := json.Unmarshal(raw, &st); err != nil {
		return time.Time{}, false, apperr.State("decode state file", err).WithOp("load")
	}
	if st.Cursor == "" {
		return time.Time{}, false, nil
	}
	t, err := parseCursor(st.Cursor)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// Save writes the cursor through a temp file and rename.
func (s *FileStore) Save(_ context.Context, cursor time.Time) error {
	raw, err := json.Marshal(fileState{Cursor: cursor.Format(proposals.DateLayout)})
	if err != nil {
		return apperr.State("encode state", err).WithOp("save")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return apperr.State("create temp state file", err).WithOp("save")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return apperr.State("write state file", err).WithOp("save")
	}
	if err := tmp.Close(); err != nil {
		return apperr.State("close state file", err).WithOp("save")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return apperr.State("replace state file", err).WithOp("save")
	}
	return nil
}

// Reset removes the state file.
func (s *FileStore) Reset(context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperr.State("remove state file", err).WithOp("reset")
	}
	return nil
}
