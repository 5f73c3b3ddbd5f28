// Package audit keeps an append-only trail of project changes as commits in
// a local git repository, one JSON snapshot file per contract.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"sitewatch/api/internal/contract"
)

// CommitInfo describes one audit entry.
type CommitInfo struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// Trail is one deployment-wide audit repository.
type Trail struct {
	dir string
	mu  sync.Mutex
}

// New opens the audit repository at dir, initializing it on first use.
func New(dir string) (*Trail, error) {
	t := &Trail{dir: dir}
	if err := t.ensureRepo(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Trail) ensureRepo() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := git.PlainOpen(t.dir); err == nil {
		return nil
	} else if !errors.Is(err, git.ErrRepositoryNotExists) {
		return fmt.Errorf("open audit repo: %w", err)
	}

	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}
	repo, err := git.PlainInit(t.dir, false)
	if err != nil {
		return fmt.Errorf("init audit repo: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	readme := []byte("Audit trail of project changes. Do not edit by hand.\n")
	if err := os.WriteFile(filepath.Join(t.dir, "README"), readme, 0o644); err != nil {
		return fmt.Errorf("write audit readme: %w", err)
	}
	if _, err := worktree.Add("README"); err != nil {
		return fmt.Errorf("git add readme: %w", err)
	}
	hash, err := worktree.Commit("Initialize audit trail", &git.CommitOptions{
		Author: systemSignature(),
	})
	if err != nil {
		return fmt.Errorf("commit audit baseline: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), hash)); err != nil {
		return fmt.Errorf("set main branch ref: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))); err != nil {
		return fmt.Errorf("set HEAD to main: %w", err)
	}
	return nil
}

// Record commits a snapshot of one contract's state. actor becomes the
// commit author.
func (t *Trail) Record(contractID string, snapshot any, actor, message string) (CommitInfo, error) {
	id := contract.NormalizeID(contractID)
	if id == "" {
		return CommitInfo{}, errors.New("empty contract id")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	repo, err := git.PlainOpen(t.dir)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("open audit repo: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return CommitInfo{}, fmt.Errorf("open worktree: %w", err)
	}

	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return CommitInfo{}, fmt.Errorf("marshal snapshot: %w", err)
	}

	relPath := snapshotPath(id)
	absPath := filepath.Join(t.dir, relPath)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return CommitInfo{}, fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := os.WriteFile(absPath, append(payload, '\n'), 0o644); err != nil {
		return CommitInfo{}, fmt.Errorf("write snapshot: %w", err)
	}
	if _, err := worktree.Add(relPath); err != nil {
		return CommitInfo{}, fmt.Errorf("git add snapshot: %w", err)
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		AllowEmptyCommits: true,
		Author:            actorSignature(actor),
	})
	if err != nil {
		return CommitInfo{}, fmt.Errorf("commit snapshot: %w", err)
	}
	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("read commit object: %w", err)
	}
	return toCommitInfo(commitObj), nil
}

// RecordRemoval commits the deletion of a contract's snapshot.
func (t *Trail) RecordRemoval(contractID, actor, message string) (CommitInfo, error) {
	id := contract.NormalizeID(contractID)
	if id == "" {
		return CommitInfo{}, errors.New("empty contract id")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	repo, err := git.PlainOpen(t.dir)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("open audit repo: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return CommitInfo{}, fmt.Errorf("open worktree: %w", err)
	}

	relPath := snapshotPath(id)
	if err := os.Remove(filepath.Join(t.dir, relPath)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return CommitInfo{}, fmt.Errorf("remove snapshot: %w", err)
	}
	if _, err := worktree.Add(relPath); err != nil {
		return CommitInfo{}, fmt.Errorf("git add removal: %w", err)
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		AllowEmptyCommits: true,
		Author:            actorSignature(actor),
	})
	if err != nil {
		return CommitInfo{}, fmt.Errorf("commit removal: %w", err)
	}
	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("read commit object: %w", err)
	}
	return toCommitInfo(commitObj), nil
}

// History lists audit entries touching one contract, newest first.
func (t *Trail) History(contractID string, limit int) ([]CommitInfo, error) {
	id := contract.NormalizeID(contractID)
	if id == "" {
		return nil, errors.New("empty contract id")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	repo, err := git.PlainOpen(t.dir)
	if err != nil {
		return nil, fmt.Errorf("open audit repo: %w", err)
	}
	ref, err := repo.Reference(plumbing.NewBranchReferenceName("main"), true)
	if err != nil {
		return nil, fmt.Errorf("resolve main: %w", err)
	}

	relPath := snapshotPath(id)
	iter, err := repo.Log(&git.LogOptions{From: ref.Hash(), FileName: &relPath})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]CommitInfo, 0, limit)
	count := 0
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, toCommitInfo(commitObj))
		count++
		if limit > 0 && count >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

// Snapshot reads the committed state for a contract at a given short or full
// hash. An empty hash reads the head snapshot.
func (t *Trail) Snapshot(contractID, hash string) (json.RawMessage, error) {
	id := contract.NormalizeID(contractID)
	if id == "" {
		return nil, errors.New("empty contract id")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	repo, err := git.PlainOpen(t.dir)
	if err != nil {
		return nil, fmt.Errorf("open audit repo: %w", err)
	}

	var commitHash plumbing.Hash
	if hash == "" {
		ref, err := repo.Reference(plumbing.NewBranchReferenceName("main"), true)
		if err != nil {
			return nil, fmt.Errorf("resolve main: %w", err)
		}
		commitHash = ref.Hash()
	} else if len(hash) == 40 {
		commitHash = plumbing.NewHash(hash)
	} else {
		resolved, err := repo.ResolveRevision(plumbing.Revision(hash))
		if err != nil {
			return nil, fmt.Errorf("resolve hash %s: %w", hash, err)
		}
		commitHash = *resolved
	}

	commitObj, err := repo.CommitObject(commitHash)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", hash, err)
	}
	file, err := commitObj.File(snapshotPath(id))
	if err != nil {
		return nil, fmt.Errorf("load snapshot from commit: %w", err)
	}
	reader, err := file.Reader()
	if err != nil {
		return nil, fmt.Errorf("open snapshot reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read snapshot bytes: %w", err)
	}
	return json.RawMessage(data), nil
}

func snapshotPath(id string) string {
	return filepath.Join("contracts", id+".json")
}

func actorSignature(actor string) *object.Signature {
	if actor == "" {
		return systemSignature()
	}
	return &object.Signature{
		Name:  actor,
		Email: fmt.Sprintf("%s@audit.sitewatch.local", sanitizeEmail(actor)),
		When:  time.Now(),
	}
}

func systemSignature() *object.Signature {
	return &object.Signature{
		Name:  "Sitewatch",
		Email: "audit@sitewatch.local",
		When:  time.Now(),
	}
}

func toCommitInfo(commitObj *object.Commit) CommitInfo {
	return CommitInfo{
		Hash:      commitObj.Hash.String()[:7],
		Message:   commitObj.Message,
		Author:    commitObj.Author.Name,
		CreatedAt: commitObj.Author.When,
	}
}

func sanitizeEmail(input string) string {
	runes := make([]rune, 0, len(input))
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			runes = append(runes, r)
			continue
		}
		if r == ' ' || r == '-' || r == '_' {
			runes = append(runes, '.')
		}
	}
	if len(runes) == 0 {
		return "user"
	}
	return string(runes)
}
