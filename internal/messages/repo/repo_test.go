package messagesrepo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	filesdomain "github.com/kgellert/cloudclip/internal/files"
	filesrepo "github.com/kgellert/cloudclip/internal/files/repo"
	messagesdomain "github.com/kgellert/cloudclip/internal/messages"
	"github.com/kgellert/cloudclip/internal/storage/sqlite"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestRepo_InsertTextAndGet(t *testing.T) {
	repo := New(testDB(t))
	ctx := context.Background()

	msg, err := repo.InsertText(ctx, "hello from the laptop", "device-a")
	require.NoError(t, err)

	assert.Positive(t, msg.ID)
	assert.Equal(t, messagesdomain.TypeText, msg.Type)
	assert.Equal(t, "hello from the laptop", msg.Content)
	assert.Equal(t, "device-a", msg.DeviceID)
	assert.Equal(t, messagesdomain.StatusSent, msg.Status)
	assert.False(t, msg.Timestamp.IsZero())
	assert.Nil(t, msg.File)

	got, err := repo.Get(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, "hello from the laptop", got.Content)
}

func TestRepo_Get_NotFound(t *testing.T) {
	repo := New(testDB(t))

	_, err := repo.Get(context.Background(), 999)
	assert.ErrorIs(t, err, messagesdomain.ErrMessageNotFound)
}

func TestRepo_List_JoinsFileMetadata(t *testing.T) {
	db := testDB(t)
	repo := New(db)
	files := filesrepo.New(db)
	ctx := context.Background()

	_, err := repo.InsertText(ctx, "plain text", "device-a")
	require.NoError(t, err)

	f := &filesdomain.File{
		OriginalName:   "photo.png",
		StorageKey:     "555-eee.png",
		SizeBytes:      2048,
		MimeType:       "image/png",
		UploadDeviceID: "device-b",
	}
	_, err = files.CreateWithMessage(ctx, f, "device-b")
	require.NoError(t, err)

	items, total, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)

	// Newest first: the file message.
	fileMsg := items[0]
	assert.Equal(t, messagesdomain.TypeFile, fileMsg.Type)
	require.NotNil(t, fileMsg.File)
	assert.Equal(t, "photo.png", fileMsg.File.OriginalName)
	assert.Equal(t, "555-eee.png", fileMsg.File.StorageKey)
	assert.Equal(t, int64(2048), fileMsg.File.SizeBytes)

	textMsg := items[1]
	assert.Equal(t, messagesdomain.TypeText, textMsg.Type)
	assert.Equal(t, "plain text", textMsg.Content)
	assert.Nil(t, textMsg.File)
}

func TestRepo_List_Pagination(t *testing.T) {
	repo := New(testDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repo.InsertText(ctx, "msg", "device-a")
		require.NoError(t, err)
	}

	items, total, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, int64(5), total)

	items, _, err = repo.List(ctx, 10, 4)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRepo_Delete(t *testing.T) {
	repo := New(testDB(t))
	ctx := context.Background()

	msg, err := repo.InsertText(ctx, "to be removed", "device-a")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, msg.ID))
	assert.ErrorIs(t, repo.Delete(ctx, msg.ID), messagesdomain.ErrMessageNotFound)

	_, err = repo.Get(ctx, msg.ID)
	assert.ErrorIs(t, err, messagesdomain.ErrMessageNotFound)
}

func TestRepo_FileReferenceCounting(t *testing.T) {
	db := testDB(t)
	repo := New(db)
	files := filesrepo.New(db)
	ctx := context.Background()

	f := &filesdomain.File{
		OriginalName:   "shared.pdf",
		StorageKey:     "666-fff.pdf",
		SizeBytes:      100,
		MimeType:       "application/pdf",
		UploadDeviceID: "device-a",
	}
	msgID, err := files.CreateWithMessage(ctx, f, "device-a")
	require.NoError(t, err)

	count, err := repo.CountByFileID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Delete(ctx, msgID))

	count, err = repo.CountByFileID(ctx, f.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRepo_DeleteByFileID(t *testing.T) {
	db := testDB(t)
	repo := New(db)
	files := filesrepo.New(db)
	ctx := context.Background()

	f := &filesdomain.File{
		OriginalName:   "doc.pdf",
		StorageKey:     "777-ggg.pdf",
		SizeBytes:      100,
		MimeType:       "application/pdf",
		UploadDeviceID: "device-a",
	}
	_, err := files.CreateWithMessage(ctx, f, "device-a")
	require.NoError(t, err)

	_, err = repo.InsertText(ctx, "unrelated", "device-a")
	require.NoError(t, err)

	deleted, err := repo.DeleteByFileID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, total, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestRepo_DeleteAll(t *testing.T) {
	repo := New(testDB(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.InsertText(ctx, "msg", "device-a")
		require.NoError(t, err)
	}

	deleted, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	_, total, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}
