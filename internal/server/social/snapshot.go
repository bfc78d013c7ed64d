package social

import (
	"encoding/gob"
	"io"
	"os"
	"time"
)

// The snapshot is an opaque blob saved and restored at process boundaries.
// Records mirror the graph structure with plain slices so the encoding stays
// stable across refactors of the in-memory representation.

type postRecord struct {
	ID        string
	Author    string
	Content   string
	CreatedAt int64
}

type userRecord struct {
	Username  string
	Password  string
	Friends   []string
	Followers []string
	Posts     []postRecord
}

type graphSnapshot struct {
	Users []userRecord
}

// Snapshot writes the whole graph to w as a gob blob.
func (g *Graph) Snapshot(w io.Writer) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snap := graphSnapshot{Users: make([]userRecord, 0, len(g.users))}
	for _, u := range g.users {
		rec := userRecord{
			Username:  u.Username,
			Password:  u.Password,
			Friends:   sortedKeys(u.Friends),
			Followers: sortedKeys(u.Followers),
			Posts:     make([]postRecord, 0, len(u.Posts)),
		}
		for _, p := range u.Posts {
			rec.Posts = append(rec.Posts, postRecord{
				ID:        p.ID,
				Author:    p.Author,
				Content:   p.Content,
				CreatedAt: p.CreatedAt.UnixNano(),
			})
		}
		snap.Users = append(snap.Users, rec)
	}
	return gob.NewEncoder(w).Encode(&snap)
}

// Restore replaces the graph contents with the snapshot read from r.
func (g *Graph) Restore(r io.Reader) error {
	var snap graphSnapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.users = make(map[string]*User, len(snap.Users))
	for _, rec := range snap.Users {
		u := newUser(rec.Username, rec.Password)
		for _, f := range rec.Friends {
			u.Friends[f] = struct{}{}
		}
		for _, f := range rec.Followers {
			u.Followers[f] = struct{}{}
		}
		for _, p := range rec.Posts {
			u.Posts = append(u.Posts, restoredPost(p))
		}
		g.users[rec.Username] = u
	}
	g.dirty = false
	return nil
}

func restoredPost(rec postRecord) *Post {
	return &Post{
		ID:        rec.ID,
		Author:    rec.Author,
		Content:   rec.Content,
		CreatedAt: time.Unix(0, rec.CreatedAt),
	}
}

// SaveFile snapshots the graph into path, writing a temp file first so a
// crash mid-save never clobbers the previous backup.
func (g *Graph) SaveFile(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := g.Snapshot(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// LoadFile restores the graph from path. A missing file is not an error and
// leaves the graph untouched; the caller learns whether a backup was loaded.
func (g *Graph) LoadFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := g.Restore(f); err != nil {
		return false, err
	}
	return true, nil
}
