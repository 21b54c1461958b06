package classifier

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsClassifier/internal/domain"
)

type memoryStore struct {
	payload []byte
	saveErr error
}

func (m *memoryStore) Save(_ context.Context, payload []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.payload = append([]byte(nil), payload...)
	return nil
}

func (m *memoryStore) Load(context.Context) ([]byte, error) {
	if m.payload == nil {
		return nil, domain.ErrNoSavedModel
	}
	return m.payload, nil
}

func trainingCorpus() (texts, categories, priorities []string) {
	ai := []string{
		"Neural network beats benchmark\nA new neural network model tops the language benchmark",
		"Language model release\nOpen language model with neural network weights released",
		"Transformer research\nResearchers scale transformer language model training",
		"Neural network chips\nStartup ships neural network accelerator for model training",
	}
	markets := []string{
		"Stock market rally\nInvestors push the stock market to record highs",
		"Bond yields climb\nBond market investors react to interest rate outlook",
		"Stock market slump\nTech stock prices fall as investors sell",
		"Central bank decision\nMarket investors await central bank rate decision",
	}
	for round := 0; round < 3; round++ {
		for i, text := range ai {
			texts = append(texts, fmt.Sprintf("%s (%d)", text, round))
			categories = append(categories, "AI")
			if i%2 == 0 {
				priorities = append(priorities, "High")
			} else {
				priorities = append(priorities, "Low")
			}
		}
		for _, text := range markets {
			texts = append(texts, fmt.Sprintf("%s (%d)", text, round))
			categories = append(categories, "Markets")
			priorities = append(priorities, "Low")
		}
	}
	return texts, categories, priorities
}

func smallOptions() Options {
	return Options{Trees: 15}
}

func TestTrainLengthMismatch(t *testing.T) {
	t.Parallel()

	_, err := Train(context.Background(), []string{"a b"}, []string{"x", "y"}, []string{"Low"}, smallOptions())
	require.ErrorIs(t, err, ErrLengthMismatch)
}

func TestTrainEmptyCorpus(t *testing.T) {
	t.Parallel()

	_, err := Train(context.Background(), nil, nil, nil, smallOptions())
	require.ErrorIs(t, err, domain.ErrNotEnoughData)
}

func TestTrainAndPredict(t *testing.T) {
	t.Parallel()

	texts, categories, priorities := trainingCorpus()
	model, err := Train(context.Background(), texts, categories, priorities, smallOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"AI", "Markets"}, model.Labels())
	assert.LessOrEqual(t, len(model.Vocabulary()), 1000)

	pred, err := model.Predict("Neural network language model\nA neural network model for language")
	require.NoError(t, err)
	assert.Equal(t, "AI", pred.Category)
	assert.Greater(t, pred.CategoryConfidence, 0.5)
	assert.LessOrEqual(t, len(pred.KeyTerms), domain.MaxKeyTerms)
	assert.NotEmpty(t, pred.KeyTerms)

	pred, err = model.Predict("Stock market investors\nInvestors sell as the stock market falls")
	require.NoError(t, err)
	assert.Equal(t, "Markets", pred.Category)
	assert.Equal(t, domain.PriorityLow, pred.Priority)
}

func TestTrainIsDeterministic(t *testing.T) {
	t.Parallel()

	texts, categories, priorities := trainingCorpus()
	first, err := Train(context.Background(), texts, categories, priorities, smallOptions())
	require.NoError(t, err)
	second, err := Train(context.Background(), texts, categories, priorities, smallOptions())
	require.NoError(t, err)

	for _, text := range []string{
		"Transformer accelerator\nneural network research",
		"Rate outlook\ncentral bank and bond market",
		"Mixed\nneural network stock market",
	} {
		a, err := first.Predict(text)
		require.NoError(t, err)
		b, err := second.Predict(text)
		require.NoError(t, err)
		assert.Equal(t, a, b, text)
	}
}

func TestRetrainLeavesPreviousVocabulary(t *testing.T) {
	t.Parallel()

	texts, categories, priorities := trainingCorpus()
	first, err := Train(context.Background(), texts, categories, priorities, smallOptions())
	require.NoError(t, err)
	before := first.Vocabulary()

	var marketTexts, marketCategories, marketPriorities []string
	for i, category := range categories {
		if category == "Markets" {
			marketTexts = append(marketTexts, texts[i])
			marketCategories = append(marketCategories, category)
			marketPriorities = append(marketPriorities, priorities[i])
		}
	}
	second, err := Train(context.Background(), marketTexts, marketCategories, marketPriorities, smallOptions())
	require.NoError(t, err)

	assert.Equal(t, before, first.Vocabulary())
	assert.NotEqual(t, before, second.Vocabulary())
}

func TestPriorityWithoutPositiveExamples(t *testing.T) {
	t.Parallel()

	texts, categories, priorities := trainingCorpus()
	for i := range priorities {
		priorities[i] = "Low"
	}
	model, err := Train(context.Background(), texts, categories, priorities, smallOptions())
	require.NoError(t, err)

	pred, err := model.Predict("Neural network\nneural network model")
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityLow, pred.Priority)
	assert.Zero(t, pred.PriorityConfidence)
}

func TestPriorityThreshold(t *testing.T) {
	t.Parallel()

	texts, categories, priorities := trainingCorpus()
	for i := range priorities {
		priorities[i] = "High"
	}
	model, err := Train(context.Background(), texts, categories, priorities, smallOptions())
	require.NoError(t, err)

	pred, err := model.Predict("Stock market\nstock market investors")
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, pred.Priority)
	assert.InDelta(t, 1.0, pred.PriorityConfidence, 1e-9)
}

func TestPersistRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	texts, categories, priorities := trainingCorpus()
	model, err := Train(ctx, texts, categories, priorities, smallOptions())
	require.NoError(t, err)

	store := &memoryStore{}
	require.NoError(t, Persist(ctx, store, model))

	restored, err := Restore(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, model.ID, restored.ID)
	assert.Equal(t, model.Vocabulary(), restored.Vocabulary())
	assert.Equal(t, model.Labels(), restored.Labels())

	text := "Neural network startup\ninvestors fund neural network model training"
	want, err := model.Predict(text)
	require.NoError(t, err)
	got, err := restored.Predict(text)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRestoreMissingSnapshot(t *testing.T) {
	t.Parallel()

	_, err := Restore(context.Background(), &memoryStore{})
	require.ErrorIs(t, err, domain.ErrNoSavedModel)
}

func TestRestoreIncompleteSnapshot(t *testing.T) {
	t.Parallel()

	for name, payload := range map[string]string{
		"garbage":          `not json`,
		"no vocabulary":    `{"version":1,"category_labels":["a"]}`,
		"no priority tree": `{"version":1,"vocabulary":["a"],"idf":[1],"category_labels":["a"],"category_forest":{"classes":1,"trees":[{"nodes":[{"v":[1]}]}]}}`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Restore(context.Background(), &memoryStore{payload: []byte(payload)})
			require.ErrorIs(t, err, domain.ErrNoSavedModel)
		})
	}
}

func TestPersistFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	texts, categories, priorities := trainingCorpus()
	model, err := Train(ctx, texts, categories, priorities, smallOptions())
	require.NoError(t, err)

	err = Persist(ctx, &memoryStore{saveErr: errors.New("disk full")}, model)
	require.ErrorIs(t, err, domain.ErrPersistence)

	err = Persist(ctx, &memoryStore{}, nil)
	require.ErrorIs(t, err, domain.ErrPersistence)
}

func TestHandle(t *testing.T) {
	t.Parallel()

	h := NewHandle(nil)
	assert.False(t, h.Fitted())
	_, err := h.Predict("anything")
	require.ErrorIs(t, err, domain.ErrNotFitted)

	texts, categories, priorities := trainingCorpus()
	model, err := Train(context.Background(), texts, categories, priorities, smallOptions())
	require.NoError(t, err)

	assert.Nil(t, h.Swap(model))
	assert.True(t, h.Fitted())
	assert.Same(t, model, h.Load())

	_, err = h.Predict("neural network")
	require.NoError(t, err)
}
