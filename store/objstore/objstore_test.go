package objstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"doc-sync/core/document"
	"doc-sync/core/reconcile"
	"doc-sync/core/storage/mocks"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 3, 13, 23, 28, 12, 724000000, time.UTC)

func testStore(client *mocks.Client) *Store {
	return &Store{client: client, bucket: "documents", prefix: "documents"}
}

func objectInfoChannel(infos ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(infos))
	for _, info := range infos {
		ch <- info
	}
	close(ch)
	return ch
}

func envelopeBody(t *testing.T, id uuid.UUID, ts time.Time, content map[string]any) io.ReadCloser {
	t.Helper()
	body, err := json.Marshal(envelope{
		ID:        id.String(),
		Index:     "myindex",
		Type:      "mytype",
		Timestamp: ts.UnixMilli(),
		Content:   content,
	})
	require.NoError(t, err)
	return io.NopCloser(strings.NewReader(string(body)))
}

func TestNew_ProvisionsMissingBucket(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "documents").Return(false, nil)
	client.On("MakeBucket", mock.Anything, "documents", mock.Anything).Return(nil)

	s, err := New(context.Background(), client, "documents", "documents", nil)
	require.NoError(t, err)
	require.NotNil(t, s)

	client.AssertExpectations(t)
}

func TestNew_KeepsExistingBucket(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "documents").Return(true, nil)

	_, err := New(context.Background(), client, "documents", "documents", nil)
	require.NoError(t, err)

	client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
}

func TestNew_BucketCheckFailureIsFatal(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "documents").Return(false, fmt.Errorf("connection refused"))

	_, err := New(context.Background(), client, "documents", "documents", nil)
	assert.Error(t, err)
}

func TestListDocuments(t *testing.T) {
	client := new(mocks.Client)
	s := testStore(client)

	id1, id2 := uuid.New(), uuid.New()
	key1 := "documents/" + id1.String() + ".json"
	key2 := "documents/" + id2.String() + ".json"

	client.On("ListObjects", mock.Anything, "documents", mock.Anything).
		Return(objectInfoChannel(
			minio.ObjectInfo{Key: key1},
			minio.ObjectInfo{Key: "documents/README.txt"}, // ignored, not a document
			minio.ObjectInfo{Key: key2},
		))
	client.On("GetObject", mock.Anything, "documents", key1, mock.Anything).
		Return(envelopeBody(t, id1, testTime, map[string]any{"v": float64(1)}), nil)
	client.On("GetObject", mock.Anything, "documents", key2, mock.Anything).
		Return(envelopeBody(t, id2, testTime.Add(time.Second), map[string]any{"v": float64(2)}), nil)

	docs, err := s.ListDocuments(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, id1, docs[0].ID)
	assert.Equal(t, "myindex", docs[0].Index)
	assert.Equal(t, "mytype", docs[0].Type)
	assert.True(t, testTime.Truncate(time.Millisecond).Equal(docs[0].Timestamp))
	assert.Equal(t, map[string]any{"v": float64(1)}, docs[0].Content)
}

func TestListDocuments_Since(t *testing.T) {
	client := new(mocks.Client)
	s := testStore(client)

	oldID, newID := uuid.New(), uuid.New()
	oldKey := "documents/" + oldID.String() + ".json"
	newKey := "documents/" + newID.String() + ".json"

	client.On("ListObjects", mock.Anything, "documents", mock.Anything).
		Return(objectInfoChannel(
			minio.ObjectInfo{Key: oldKey},
			minio.ObjectInfo{Key: newKey},
		))
	client.On("GetObject", mock.Anything, "documents", oldKey, mock.Anything).
		Return(envelopeBody(t, oldID, testTime.Add(-time.Hour), nil), nil)
	client.On("GetObject", mock.Anything, "documents", newKey, mock.Anything).
		Return(envelopeBody(t, newID, testTime, nil), nil)

	// The bound is inclusive: a timestamp equal to since is returned.
	since := testTime.Truncate(time.Millisecond)
	docs, err := s.ListDocuments(context.Background(), &since)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, newID, docs[0].ID)
}

func TestListDocuments_ListingFailure(t *testing.T) {
	client := new(mocks.Client)
	s := testStore(client)

	client.On("ListObjects", mock.Anything, "documents", mock.Anything).
		Return(objectInfoChannel(minio.ObjectInfo{Err: fmt.Errorf("request timeout")}))

	_, err := s.ListDocuments(context.Background(), nil)
	require.Error(t, err)

	var storeErr *reconcile.StoreError
	assert.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "object-storage", storeErr.Store)
	assert.Equal(t, "list", storeErr.Op)
}

func TestInsert(t *testing.T) {
	client := new(mocks.Client)
	s := testStore(client)
	s.clock = func() time.Time { return testTime }

	doc := document.Document{
		ID:        uuid.New(),
		Index:     "myindex",
		Type:      "mytype",
		Timestamp: testTime,
		Content:   map[string]any{"author": "nono"},
	}
	expectedKey := "documents/" + doc.ID.String() + ".json"

	var uploaded []byte
	client.On("PutObject", mock.Anything, "documents", expectedKey, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			body, err := io.ReadAll(args.Get(3).(io.Reader))
			require.NoError(t, err)
			uploaded = body
		}).
		Return(minio.UploadInfo{}, nil)

	err := s.Insert(context.Background(), doc)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(uploaded, &env))
	assert.Equal(t, doc.ID.String(), env.ID)
	assert.Equal(t, "myindex", env.Index)
	assert.Equal(t, "mytype", env.Type)
	assert.Equal(t, testTime.Truncate(time.Millisecond).UnixMilli(), env.Timestamp)
	assert.Equal(t, doc.Content, env.Content)
}

func TestInsert_SubstitutesClockWhenTimestampUnset(t *testing.T) {
	client := new(mocks.Client)
	s := testStore(client)
	s.clock = func() time.Time { return testTime }

	doc := document.New("myindex", "mytype", nil)

	var uploaded []byte
	client.On("PutObject", mock.Anything, "documents", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			body, err := io.ReadAll(args.Get(3).(io.Reader))
			require.NoError(t, err)
			uploaded = body
		}).
		Return(minio.UploadInfo{}, nil)

	require.NoError(t, s.Insert(context.Background(), doc))

	var env envelope
	require.NoError(t, json.Unmarshal(uploaded, &env))
	assert.Equal(t, testTime.Truncate(time.Millisecond).UnixMilli(), env.Timestamp)
}

func TestDeleteByID(t *testing.T) {
	client := new(mocks.Client)
	s := testStore(client)

	id := uuid.New()
	client.On("RemoveObject", mock.Anything, "documents", "documents/"+id.String()+".json", mock.Anything).
		Return(nil)

	require.NoError(t, s.DeleteByID(context.Background(), id))
	client.AssertExpectations(t)
}

func TestDeleteByID_Failure(t *testing.T) {
	client := new(mocks.Client)
	s := testStore(client)

	client.On("RemoveObject", mock.Anything, "documents", mock.Anything, mock.Anything).
		Return(fmt.Errorf("backend rejection"))

	err := s.DeleteByID(context.Background(), uuid.New())
	require.Error(t, err)

	var storeErr *reconcile.StoreError
	assert.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "delete", storeErr.Op)
}
