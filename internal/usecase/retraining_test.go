package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsClassifier/internal/classifier"
	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/infrastructure/storage"
)

func testOptions() classifier.Options {
	return classifier.Options{Trees: 15}
}

func TestTrainModelWithoutLabeledData(t *testing.T) {
	t.Parallel()
	handle := classifier.NewHandle(nil)
	blob := &modelBlob{}
	r := NewRetrainer(RetrainerDeps{Content: storage.NewMemoryStore(), Store: blob, Handle: handle, Options: testOptions()})

	_, err := r.TrainModel(context.Background())
	require.ErrorIs(t, err, domain.ErrNoLabeledData)
	assert.False(t, handle.Fitted())
	assert.Nil(t, blob.payload)
}

func TestTrainModelPersistsAndRestores(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedLabeled(store)
	blob := &modelBlob{}

	handle := classifier.NewHandle(nil)
	r := NewRetrainer(RetrainerDeps{Content: store, Store: blob, Handle: handle, Options: testOptions()})
	report, err := r.TrainModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 24, report.Samples)
	assert.Equal(t, []string{"AI", "Markets"}, report.Categories)
	assert.NotEmpty(t, report.ModelID)
	require.NotNil(t, blob.payload)

	restored := classifier.NewHandle(nil)
	loaded, err := NewRetrainer(RetrainerDeps{Store: blob, Handle: restored}).LoadModel(ctx)
	require.NoError(t, err)
	require.True(t, loaded)

	live := NewClassificationService(handle, nil)
	fromDisk := NewClassificationService(restored, nil)
	stories := append(append([][2]string{}, aiStories...), marketStories...)
	for _, story := range stories {
		assert.Equal(t, live.Classify(story[0], story[1]), fromDisk.Classify(story[0], story[1]))
	}
}

func TestTrainModelIsDeterministic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedLabeled(store)

	first := classifier.NewHandle(nil)
	second := classifier.NewHandle(nil)
	_, err := NewRetrainer(RetrainerDeps{Content: store, Handle: first, Options: testOptions()}).TrainModel(ctx)
	require.NoError(t, err)
	_, err = NewRetrainer(RetrainerDeps{Content: store, Handle: second, Options: testOptions()}).TrainModel(ctx)
	require.NoError(t, err)

	a := NewClassificationService(first, nil)
	b := NewClassificationService(second, nil)
	held := [][2]string{
		{"Neural accelerator", "language model benchmark investors"},
		{"Rate outlook", "bond investors await the central bank"},
	}
	for _, story := range held {
		assert.Equal(t, a.Classify(story[0], story[1]), b.Classify(story[0], story[1]))
	}
}

func TestTrainModelPersistFailureKeepsPriorSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedLabeled(store)
	blob := &modelBlob{}
	handle := classifier.NewHandle(nil)
	r := NewRetrainer(RetrainerDeps{Content: store, Store: blob, Handle: handle, Options: testOptions()})

	_, err := r.TrainModel(ctx)
	require.NoError(t, err)
	prior := handle.Load()
	saved := append([]byte(nil), blob.payload...)

	blob.saveErr = errors.New("disk full")
	_, err = r.TrainModel(ctx)
	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.Same(t, prior, handle.Load())
	assert.Equal(t, saved, blob.payload)
}

func TestLoadModelWithoutSnapshot(t *testing.T) {
	t.Parallel()
	handle := classifier.NewHandle(nil)
	loaded, err := NewRetrainer(RetrainerDeps{Store: &modelBlob{}, Handle: handle}).LoadModel(context.Background())
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.False(t, handle.Fitted())
}

func TestTrainModelReclassifiesUncategorized(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedLabeled(store)

	id := store.AddItem(domain.ContentItem{
		URL:     "https://example.com/pending",
		Title:   aiStories[1][0],
		Summary: aiStories[1][1],
	})
	require.NoError(t, store.UpdateClassification(ctx, domain.ClassificationUpdate{
		ItemID: id, Category: domain.DefaultCategory, Priority: domain.PriorityLow,
	}))

	handle := classifier.NewHandle(nil)
	r := NewRetrainer(RetrainerDeps{
		Content:                 store,
		Handle:                  handle,
		Options:                 testOptions(),
		ReclassifyUncategorized: true,
	})
	report, err := r.TrainModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Reclassified)

	prediction, err := handle.Predict(domain.ClassifierText(aiStories[1][0], aiStories[1][1]))
	require.NoError(t, err)
	for _, item := range store.Items() {
		if item.ID == id {
			assert.Equal(t, prediction.Category, *item.Category)
			assert.Equal(t, prediction.Priority, *item.Priority)
		}
	}
}
