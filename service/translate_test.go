package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatFunc adapts a function to the Translator interface.
type chatFunc func(ctx context.Context, system, user string, jsonMode bool) (string, error)

func (f chatFunc) ChatCompletion(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	return f(ctx, system, user, jsonMode)
}

func cannedChat(response string) Translator {
	return chatFunc(func(context.Context, string, string, bool) (string, error) {
		return response, nil
	})
}

func writeProjectFile(t *testing.T, root, projectID, rel, content string) {
	t.Helper()
	path := filepath.Join(root, projectID, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readProjectFile(t *testing.T, root, projectID, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, projectID, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func newUnitMeta(t *testing.T, root string) *MetaStore {
	t.Helper()
	return NewMetaStore(newFakeProjectStore(), root)
}

func TestTranslateUnit(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "p1", "text/story.txt", "A story.")

	meta := newUnitMeta(t, root)
	unit := &TranslateUnit{
		Client: cannedChat(`{"narrator_gender":"female","translation_es":"Una historia.","title_es":"Titulo"}`),
		Meta:   meta,
		Root:   root,
	}
	require.NoError(t, unit.Run(context.Background(), "p1"))

	assert.Equal(t, "Una historia.", readProjectFile(t, root, "p1", "text/story_translated.txt"))

	m, err := meta.Load("p1")
	require.NoError(t, err)
	assert.Equal(t, "female", m["narrator_gender"])
	assert.Equal(t, "Titulo", m["title_es"])
}

func TestTranslateUnitDefaultsGender(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "p1", "text/story.txt", "A story.")

	meta := newUnitMeta(t, root)
	unit := &TranslateUnit{
		Client: cannedChat(`{"narrator_gender":"unknown","translation_es":"Hola","title_es":"T"}`),
		Meta:   meta,
		Root:   root,
	}
	require.NoError(t, unit.Run(context.Background(), "p1"))

	m, _ := meta.Load("p1")
	assert.Equal(t, "male", m["narrator_gender"], "ambiguous narrators default to the male voice pool")
}

func TestTranslateUnitMissingStory(t *testing.T) {
	root := t.TempDir()
	unit := &TranslateUnit{Client: cannedChat(`{}`), Meta: newUnitMeta(t, root), Root: root}
	assert.Error(t, unit.Run(context.Background(), "p1"))
}

func TestTranslateUnitEmptyStory(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "p1", "text/story.txt", "   \n")
	unit := &TranslateUnit{Client: cannedChat(`{}`), Meta: newUnitMeta(t, root), Root: root}
	assert.Error(t, unit.Run(context.Background(), "p1"))
}

func TestTranslateUnitModelFailure(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "p1", "text/story.txt", "A story.")
	unit := &TranslateUnit{
		Client: chatFunc(func(context.Context, string, string, bool) (string, error) {
			return "", errors.New("rate limited")
		}),
		Meta: newUnitMeta(t, root),
		Root: root,
	}
	assert.Error(t, unit.Run(context.Background(), "p1"))
}

func TestTranslateUnitEmptyTranslation(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "p1", "text/story.txt", "A story.")
	unit := &TranslateUnit{
		Client: cannedChat(`{"narrator_gender":"male","translation_es":"","title_es":"T"}`),
		Meta:   newUnitMeta(t, root),
		Root:   root,
	}
	assert.Error(t, unit.Run(context.Background(), "p1"))
}
