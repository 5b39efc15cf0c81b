package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"filedrive/internal/domain/blob"
	"filedrive/internal/domain/user"
	domain "filedrive/internal/domain/user_file"
	"filedrive/internal/infrastructure/mq"
)

type memObject struct {
	body        []byte
	contentType string
}

// memBlobs is an in-memory blob store; signed urls are "mem://<key>?ttl=<ttl>".
type memBlobs struct {
	mu        sync.Mutex
	objects   map[string]memObject
	uploadErr error
	removeErr error
	signErr   error
	removes   int
}

func newMemBlobs() *memBlobs { return &memBlobs{objects: map[string]memObject{}} }

func (m *memBlobs) Upload(_ context.Context, key string, body io.Reader, _ int64, contentType string) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{body: b, contentType: contentType}
	return key, nil
}

func (m *memBlobs) CreateSignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	if m.signErr != nil {
		return "", m.signErr
	}
	return "mem://" + key + "?ttl=" + ttl.String(), nil
}

func (m *memBlobs) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removes++
	if m.removeErr != nil {
		return m.removeErr
	}
	for _, k := range keys {
		delete(m.objects, k)
	}
	return nil
}

// resolve follows a signed url the way a browser would.
func (m *memBlobs) resolve(signed string) (memObject, error) {
	key := strings.TrimPrefix(signed, "mem://")
	if i := strings.LastIndex(key, "?"); i >= 0 {
		key = key[:i]
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	if !ok {
		return memObject{}, blob.NewError(blob.OpSignedURL, key, blob.KindNotFound, errors.New("no such key"))
	}
	return memObject{body: bytes.Clone(o.body), contentType: o.contentType}, nil
}

type fakeFiles struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*domain.UserFile
	createErr error
	deleteErr error
	fetchErr  error
}

func newFakeFiles() *fakeFiles { return &fakeFiles{byID: map[uuid.UUID]*domain.UserFile{}} }

func (f *fakeFiles) FetchUserFiles(_ context.Context, ownerID user.UUID) (domain.UserFiles, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out domain.UserFiles
	for _, uf := range f.byID {
		if uf.OwnerID == ownerID {
			out = append(out, uf)
		}
	}
	return out, nil
}

func (f *fakeFiles) FetchUserFile(_ context.Context, id uuid.UUID) (*domain.UserFile, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id], nil
}

func (f *fakeFiles) FetchUserFileByKey(_ context.Context, key string) (*domain.UserFile, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, uf := range f.byID {
		if uf.StorageKey == key {
			return uf, nil
		}
	}
	return nil, nil
}

func (f *fakeFiles) CreateUserFile(_ context.Context, req *domain.UserFile) (*domain.UserFile, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	uf := *req
	uf.UUID = uuid.New()
	uf.CreatedAt = time.Now()
	f.byID[uf.UUID] = &uf
	return &uf, nil
}

func (f *fakeFiles) DeleteUserFile(_ context.Context, id uuid.UUID) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byID[id]
	delete(f.byID, id)
	return ok, nil
}

type fakeUsers struct {
	mu        sync.Mutex
	byID      map[user.UUID]*user.User
	createErr error
	fetchErr  error
}

func newFakeUsers(us ...*user.User) *fakeUsers {
	f := &fakeUsers{byID: map[user.UUID]*user.User{}}
	for _, u := range us {
		f.byID[u.UUID] = u
	}
	return f
}

func (f *fakeUsers) FetchUserByID(_ context.Context, id user.UUID) (*user.User, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id], nil
}

func (f *fakeUsers) FetchUserByUsername(_ context.Context, username string) (*user.User, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) FetchUserByEmail(_ context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) CreateUser(_ context.Context, req user.User) (*user.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Username == req.Username || u.Email == req.Email {
			return nil, user.ErrAlreadyExists
		}
	}
	req.UUID = uuid.New()
	req.CreatedAt = time.Now()
	f.byID[req.UUID] = &req
	return &req, nil
}

type recordingEvents struct {
	mu     sync.Mutex
	events []mq.Event
}

func (r *recordingEvents) Publish(e mq.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
