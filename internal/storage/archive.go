package storage

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/edtools/canvas-crawler/internal/crawler"
)

// extractionTask is one archive awaiting expansion. Expansion runs on an
// explicit stack, never language recursion, so depth, member and byte limits
// stay simple counters even against adversarial nested archives.
type extractionTask struct {
	archivePath string
	outputRoot  string
	depth       int
	parentName  string
}

// extractionState tracks the shared budgets across one expansion tree.
type extractionState struct {
	members    int
	totalBytes int64
}

// ExtractArchive expands the zip at relPath into <outputRoot>__zip/ next to
// it, emitting a cloned JSON record per extracted member. Nested archives are
// pushed as new tasks. Safety violations skip the member or truncate the
// archive with a warning; siblings keep extracting.
func (m *Manager) ExtractArchive(ctx context.Context, relPath string, parent *crawler.Record) error {
	root := strings.TrimSuffix(relPath, path.Ext(relPath)) + "__zip"
	if parent.ID != nil {
		root = path.Join("files", fmt.Sprintf("%v__zip", parent.ID))
	}

	stack := []extractionTask{{
		archivePath: relPath,
		outputRoot:  root,
		depth:       1,
		parentName:  path.Base(relPath),
	}}
	state := &extractionState{}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("archive expansion interrupted: %w", err)
		}
		task := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if task.depth > m.limits.MaxDepth {
			m.logger.Warn("archive nesting limit reached, truncating",
				zap.String("archive", task.archivePath),
				zap.Int("depth", task.depth),
			)
			m.metrics.IncArchiveTruncated()
			continue
		}
		stack = m.extractOne(task, parent, state, stack)
	}
	return nil
}

func (m *Manager) extractOne(
	task extractionTask,
	parent *crawler.Record,
	state *extractionState,
	stack []extractionTask,
) []extractionTask {
	full := filepath.Join(m.baseDir, filepath.FromSlash(task.archivePath))
	f, err := m.fs.Open(full)
	if err != nil {
		m.logger.Warn("cannot open archive", zap.String("archive", task.archivePath), zap.Error(err))
		return stack
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			m.logger.Warn("close archive", zap.Error(cerr))
		}
	}()

	info, err := f.Stat()
	if err != nil {
		m.logger.Warn("cannot stat archive", zap.String("archive", task.archivePath), zap.Error(err))
		return stack
	}
	reader, err := zip.NewReader(f, info.Size())
	if err != nil {
		m.logger.Warn("unreadable archive", zap.String("archive", task.archivePath), zap.Error(err))
		return stack
	}

	for _, member := range reader.File {
		if strings.HasSuffix(member.Name, "/") {
			continue
		}

		state.members++
		if state.members > m.limits.MaxMembers {
			m.logger.Warn("archive member limit reached, truncating",
				zap.String("archive", task.archivePath),
				zap.Int("limit", m.limits.MaxMembers),
			)
			m.metrics.IncArchiveTruncated()
			return stack
		}
		state.totalBytes += int64(member.UncompressedSize64)
		if state.totalBytes > m.limits.MaxTotalBytes {
			m.logger.Warn("archive byte limit reached, truncating",
				zap.String("archive", task.archivePath),
				zap.Int64("limit", m.limits.MaxTotalBytes),
			)
			m.metrics.IncArchiveTruncated()
			return stack
		}

		sanitized := sanitizeMemberPath(member.Name)
		if sanitized == "" {
			m.logger.Warn("skipping archive member with unusable path",
				zap.String("archive", task.archivePath),
				zap.String("member", member.Name),
			)
			m.metrics.IncArchiveSkipped()
			continue
		}
		dest := path.Join(task.outputRoot, sanitized)
		if !within(task.outputRoot, dest) {
			m.logger.Warn("skipping archive member escaping extraction root",
				zap.String("archive", task.archivePath),
				zap.String("member", member.Name),
			)
			m.metrics.IncArchiveSkipped()
			continue
		}
		dest = m.dedupeDestination(dest)

		budget := m.limits.MaxTotalBytes - (state.totalBytes - int64(member.UncompressedSize64))
		hash, err := m.copyMember(member, dest, budget)
		if err != nil {
			m.logger.Warn("failed to extract archive member",
				zap.String("archive", task.archivePath),
				zap.String("member", member.Name),
				zap.Error(err),
			)
			m.metrics.IncArchiveSkipped()
			continue
		}

		clone := cloneRecord(parent, member.Name, task, dest, hash)
		if err := m.writeJSONAt(clone, path.Join("json_output", dest+".json")); err != nil {
			m.logger.Warn("failed to write clone record",
				zap.String("member", member.Name),
				zap.Error(err),
			)
		}
		m.metrics.IncArchiveMember()

		if strings.EqualFold(path.Ext(dest), ".zip") {
			stack = append(stack, extractionTask{
				archivePath: dest,
				outputRoot:  strings.TrimSuffix(dest, path.Ext(dest)) + "__zip",
				depth:       task.depth + 1,
				parentName:  path.Base(dest),
			})
		}
	}
	return stack
}

// copyMember streams one member to dest while hashing it. budget caps the
// bytes actually copied in case the member header understates its size.
func (m *Manager) copyMember(member *zip.File, dest string, budget int64) (string, error) {
	rc, err := member.Open()
	if err != nil {
		return "", fmt.Errorf("open member: %w", err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			m.logger.Warn("close archive member", zap.Error(cerr))
		}
	}()

	full := filepath.Join(m.baseDir, filepath.FromSlash(dest))
	if err := m.fs.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", fmt.Errorf("create member dir: %w", err)
	}
	out, err := m.fs.Create(full)
	if err != nil {
		return "", fmt.Errorf("create member file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			m.logger.Warn("close extracted member", zap.Error(cerr))
		}
	}()

	digest := sha256.New()
	n, err := io.Copy(io.MultiWriter(out, digest), io.LimitReader(rc, budget+1))
	if err != nil {
		return "", fmt.Errorf("stream member: %w", err)
	}
	if n > budget {
		if rmErr := m.fs.Remove(full); rmErr != nil {
			m.logger.Warn("remove oversized member", zap.Error(rmErr))
		}
		return "", fmt.Errorf("member exceeds byte budget")
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

// dedupeDestination appends an incrementing counter before the extension
// until dest no longer collides with an existing file.
func (m *Manager) dedupeDestination(dest string) string {
	full := filepath.Join(m.baseDir, filepath.FromSlash(dest))
	if exists, _ := afero.Exists(m.fs, full); !exists {
		return dest
	}
	ext := path.Ext(dest)
	stem := strings.TrimSuffix(dest, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		full = filepath.Join(m.baseDir, filepath.FromSlash(candidate))
		if exists, _ := afero.Exists(m.fs, full); !exists {
			return candidate
		}
	}
}

// sanitizeMemberPath normalizes a zip member name into a safe relative path:
// backslashes become slashes, drive letters and leading separators are
// stripped, and "." / ".." segments are discarded rather than resolved.
func sanitizeMemberPath(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if len(name) >= 2 && name[1] == ':' {
		name = name[2:]
	}
	name = strings.TrimLeft(name, "/")

	parts := strings.Split(name, "/")
	kept := parts[:0]
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			continue
		}
		kept = append(kept, part)
	}
	return path.Join(kept...)
}

// within reports whether p stays strictly inside root after cleaning.
func within(root, p string) bool {
	cleaned := path.Clean(p)
	return cleaned == root || strings.HasPrefix(cleaned, root+"/")
}

// cloneRecord shallow-copies the parent record, overwriting identity and
// artifact fields and adding provenance for the extracted member.
func cloneRecord(parent *crawler.Record, memberName string, task extractionTask, dest, hash string) *crawler.Record {
	clone := *parent
	clone.Title = path.Base(dest)
	clone.Extension = strings.TrimPrefix(path.Ext(dest), ".")
	clone.FilePath = dest
	clone.Body = ""
	clone.URL = ""
	clone.MemberPath = memberName
	clone.ParentArchive = task.parentName
	clone.ArchiveDepth = task.depth
	clone.ContentHash = hash
	return &clone
}
