package mockserver

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DefaultCollection is where dataset documents are seeded.
const DefaultCollection = "_default._default"

// seededDocsPerDataset controls how many documents a dataset reset creates.
const seededDocsPerDataset = 5

type document map[string]any

func (d document) clone() document {
	out := make(document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

type database struct {
	// collection name -> document id -> document
	collections map[string]map[string]document
}

func newDatabase() *database {
	return &database{collections: map[string]map[string]document{
		DefaultCollection: {},
	}}
}

type replicator struct {
	database   string
	continuous bool
	polls      int
}

// store holds the in-memory world the mock server mutates. One lock is
// plenty: the mock exists for functional tests, not load.
type store struct {
	mu          sync.Mutex
	databases   map[string]*database
	snapshots   map[string]map[string]map[string]document
	replicators map[string]*replicator
}

func newStore() *store {
	s := &store{}
	s.resetAll()
	return s
}

func (s *store) resetAll() {
	s.databases = make(map[string]*database)
	s.snapshots = make(map[string]map[string]map[string]document)
	s.replicators = make(map[string]*replicator)
}

// seedDataset populates one target database with deterministic documents
// derived from the dataset name.
func (s *store) seedDataset(dataset, dbName string) {
	db := newDatabase()
	docs := db.collections[DefaultCollection]
	for i := 1; i <= seededDocsPerDataset; i++ {
		id := fmt.Sprintf("%s_%d", dataset, i)
		docs[id] = document{"dataset": dataset, "seq": i}
	}
	s.databases[dbName] = db
}

func (s *store) documentIDs(dbName string, collections []string) (map[string][]string, error) {
	db, ok := s.databases[dbName]
	if !ok {
		return nil, fmt.Errorf("database %q not found", dbName)
	}
	if len(collections) == 0 {
		for name := range db.collections {
			collections = append(collections, name)
		}
	}
	out := make(map[string][]string, len(collections))
	for _, name := range collections {
		docs, ok := db.collections[name]
		if !ok {
			return nil, fmt.Errorf("collection %q not found in database %q", name, dbName)
		}
		ids := make([]string, 0, len(docs))
		for id := range docs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out[name] = ids
	}
	return out, nil
}

type updateEntry struct {
	Type              string         `json:"type"`
	Collection        string         `json:"collection"`
	DocumentID        string         `json:"documentID"`
	UpdatedProperties map[string]any `json:"updatedProperties"`
	RemovedProperties map[string]any `json:"removedProperties"`
}

func (s *store) applyUpdates(dbName string, updates []updateEntry) error {
	db, ok := s.databases[dbName]
	if !ok {
		return fmt.Errorf("database %q not found", dbName)
	}
	for _, u := range updates {
		docs, ok := db.collections[u.Collection]
		if !ok {
			docs = map[string]document{}
			db.collections[u.Collection] = docs
		}
		switch strings.ToUpper(u.Type) {
		case "UPDATE":
			doc, ok := docs[u.DocumentID]
			if !ok {
				doc = document{}
			} else {
				doc = doc.clone()
			}
			for k, v := range u.UpdatedProperties {
				doc[k] = v
			}
			for k := range u.RemovedProperties {
				delete(doc, k)
			}
			docs[u.DocumentID] = doc
		case "DELETE", "PURGE":
			delete(docs, u.DocumentID)
		default:
			return fmt.Errorf("unrecognized update type %q", u.Type)
		}
	}
	return nil
}

// takeSnapshot captures the named documents from every known database, since
// the snapshot wire shape names no database; verification picks the one that
// matters.
func (s *store) takeSnapshot(targets []snapshotTarget) string {
	id := uuid.NewString()
	captured := make(map[string]map[string]document)
	for dbName, db := range s.databases {
		byKey := make(map[string]document)
		for _, t := range targets {
			key := t.Collection + "/" + t.ID
			if docs, ok := db.collections[t.Collection]; ok {
				if doc, ok := docs[t.ID]; ok {
					byKey[key] = doc.clone()
					continue
				}
			}
			byKey[key] = nil
		}
		captured[dbName] = byKey
	}
	s.snapshots[id] = captured
	return id
}

type snapshotTarget struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

// verify replays the expected changes onto the snapshot baseline and compares
// the outcome against the database's current state.
func (s *store) verify(dbName, snapshotID string, changes []updateEntry) (bool, string, error) {
	db, ok := s.databases[dbName]
	if !ok {
		return false, "", fmt.Errorf("database %q not found", dbName)
	}
	baseline, ok := s.snapshots[snapshotID]
	if !ok {
		return false, "", fmt.Errorf("snapshot %q not found", snapshotID)
	}
	expected := make(map[string]document)
	for key, doc := range baseline[dbName] {
		if doc != nil {
			expected[key] = doc.clone()
		}
	}
	for _, ch := range changes {
		key := ch.Collection + "/" + ch.DocumentID
		switch strings.ToUpper(ch.Type) {
		case "UPDATE":
			doc, ok := expected[key]
			if !ok {
				doc = document{}
			}
			for k, v := range ch.UpdatedProperties {
				doc[k] = v
			}
			for k := range ch.RemovedProperties {
				delete(doc, k)
			}
			expected[key] = doc
		case "DELETE", "PURGE":
			delete(expected, key)
		}
	}

	keys := make(map[string]struct{})
	for key := range baseline[dbName] {
		keys[key] = struct{}{}
	}
	for _, ch := range changes {
		keys[ch.Collection+"/"+ch.DocumentID] = struct{}{}
	}

	for key := range keys {
		collection, docID, _ := strings.Cut(key, "/")
		var actual document
		if docs, ok := db.collections[collection]; ok {
			actual = docs[docID]
		}
		want, wantExists := expected[key]
		if !wantExists {
			if actual != nil {
				return false, fmt.Sprintf("document %q in collection %q should not exist", docID, collection), nil
			}
			continue
		}
		if actual == nil {
			return false, fmt.Sprintf("document %q in collection %q is missing", docID, collection), nil
		}
		if !equalDocuments(want, actual) {
			return false, fmt.Sprintf("document %q in collection %q has unexpected properties", docID, collection), nil
		}
	}
	return true, "", nil
}

func equalDocuments(a, b document) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || fmt.Sprintf("%v", av) != fmt.Sprintf("%v", bv) {
			return false
		}
	}
	return true
}

func (s *store) startReplicator(dbName string, continuous bool) (string, error) {
	if _, ok := s.databases[dbName]; !ok {
		return "", fmt.Errorf("database %q not found", dbName)
	}
	id := uuid.NewString()
	s.replicators[id] = &replicator{database: dbName, continuous: continuous}
	return id, nil
}

// replicatorStatus advances a fake lifecycle on every poll: connecting, then
// busy, then idle (continuous) or stopped (one-shot).
func (s *store) replicatorStatus(id string) (activity string, completed bool, err error) {
	r, ok := s.replicators[id]
	if !ok {
		return "", false, fmt.Errorf("replicator %q not found", id)
	}
	r.polls++
	switch {
	case r.polls == 1:
		return "CONNECTING", false, nil
	case r.polls == 2:
		return "BUSY", false, nil
	case r.continuous:
		return "IDLE", true, nil
	default:
		return "STOPPED", true, nil
	}
}
