package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qius-alx/social-network/internal/apperror"
	"github.com/qius-alx/social-network/internal/model"
)

func newQA(t *testing.T) (*QuestionService, *AnswerService, model.Profile, model.Profile) {
	t.Helper()
	db := newTestStore(t)
	alice := storeUser(t, db, "alice")
	bob := storeUser(t, db, "bob")
	return NewQuestionService(db, db, testLogger()), NewAnswerService(db, db, testLogger()), alice, bob
}

// =========================================================================
// QUESTIONS
// =========================================================================

func TestAsk_NormalizesInput(t *testing.T) {
	qs, _, alice, _ := newQA(t)

	q, err := qs.Ask(context.Background(), alice, QuestionInput{
		Title:   "  How do channels work? ",
		Content: "details",
		Tags:    []string{"Go", " go ", "", "Concurrency"},
	})
	require.NoError(t, err)
	assert.Equal(t, "How do channels work?", q.Title)
	assert.Equal(t, []string{"go", "concurrency"}, q.Tags)
	assert.Equal(t, alice, q.Author)
}

func TestAsk_Validation(t *testing.T) {
	qs, _, alice, _ := newQA(t)
	ctx := context.Background()

	for _, in := range []QuestionInput{
		{Title: "", Content: "x"},
		{Title: "x", Content: "   "},
		{Title: strings.Repeat("t", MaxTitleLength+1), Content: "x"},
	} {
		_, err := qs.Ask(ctx, alice, in)
		assert.ErrorIs(t, err, apperror.ErrValidation)
	}
}

func TestListQuestions_PagingAndTag(t *testing.T) {
	qs, _, alice, _ := newQA(t)
	ctx := context.Background()
	for i, tags := range [][]string{{"go"}, {"rust"}, {"go", "sql"}} {
		_, err := qs.Ask(ctx, alice, QuestionInput{Title: "q" + string(rune('a'+i)), Content: "c", Tags: tags})
		require.NoError(t, err)
	}

	page, err := qs.List(ctx, "", "", Page{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalQuestions)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
	require.Len(t, page.Questions, 2)
	assert.Equal(t, "qc", page.Questions[0].Title)

	page, err = qs.List(ctx, "GO", "date", Page{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalQuestions)
	assert.Equal(t, 1, page.TotalPages)
}

func TestListQuestions_Popularity(t *testing.T) {
	qs, as, alice, bob := newQA(t)
	ctx := context.Background()
	busy, err := qs.Ask(ctx, alice, QuestionInput{Title: "busy", Content: "c"})
	require.NoError(t, err)
	_, err = qs.Ask(ctx, alice, QuestionInput{Title: "quiet", Content: "c"})
	require.NoError(t, err)
	_, err = as.Post(ctx, bob, busy.ID, "answer")
	require.NoError(t, err)

	page, err := qs.List(ctx, "", "Popularity", Page{})
	require.NoError(t, err)
	require.Len(t, page.Questions, 2)
	assert.Equal(t, "busy", page.Questions[0].Title)

	page, err = qs.List(ctx, "", "bogus", Page{})
	require.NoError(t, err)
	assert.Equal(t, "quiet", page.Questions[0].Title, "unknown sort falls back to date")
}

func TestUpdateDeleteQuestion_OwnerOnly(t *testing.T) {
	qs, as, alice, bob := newQA(t)
	ctx := context.Background()
	q, err := qs.Ask(ctx, alice, QuestionInput{Title: "t", Content: "c", Tags: []string{"go"}})
	require.NoError(t, err)

	_, err = qs.Update(ctx, bob.ID, q.ID, QuestionInput{Title: "hijack", Content: "c"})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	updated, err := qs.Update(ctx, alice.ID, q.ID, QuestionInput{Title: "t2", Content: "c2"})
	require.NoError(t, err)
	assert.Equal(t, "t2", updated.Title)
	assert.Equal(t, []string{"go"}, updated.Tags, "nil tags keep existing tags")

	a, err := as.Post(ctx, bob, q.ID, "answer")
	require.NoError(t, err)

	assert.ErrorIs(t, qs.Delete(ctx, bob.ID, q.ID), apperror.ErrForbidden)
	require.NoError(t, qs.Delete(ctx, alice.ID, q.ID))

	_, err = qs.Get(ctx, q.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = as.Update(ctx, bob.ID, a.ID, "still here?")
	assert.ErrorIs(t, err, apperror.ErrNotFound, "answers are removed with the question")
}

func TestGetQuestion_InvalidID(t *testing.T) {
	qs, _, _, _ := newQA(t)

	_, err := qs.Get(context.Background(), "zzz")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

// =========================================================================
// ANSWERS
// =========================================================================

func TestPostAnswer(t *testing.T) {
	qs, as, alice, bob := newQA(t)
	ctx := context.Background()
	q, _ := qs.Ask(ctx, alice, QuestionInput{Title: "t", Content: "c"})

	a, err := as.Post(ctx, bob, q.ID, "  use select ")
	require.NoError(t, err)
	assert.Equal(t, "use select", a.Content)
	assert.Zero(t, a.Votes)

	_, err = as.Post(ctx, bob, "cv37rs3pp9olc6atsptg", "orphan")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = as.Post(ctx, bob, q.ID, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = as.List(ctx, "cv37rs3pp9olc6atsptg")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestVote(t *testing.T) {
	qs, as, alice, bob := newQA(t)
	ctx := context.Background()
	q, _ := qs.Ask(ctx, alice, QuestionInput{Title: "t", Content: "c"})
	a, _ := as.Post(ctx, bob, q.ID, "answer")

	got, err := as.Vote(ctx, a.ID, Upvote)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Votes)

	got, err = as.Vote(ctx, a.ID, Downvote)
	require.NoError(t, err)
	got, err = as.Vote(ctx, a.ID, Downvote)
	require.NoError(t, err)
	assert.Equal(t, -1, got.Votes)

	_, err = as.Vote(ctx, a.ID, "sideways")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestMarkBest_QuestionAuthorOnlyAndExclusive(t *testing.T) {
	qs, as, alice, bob := newQA(t)
	ctx := context.Background()
	q, _ := qs.Ask(ctx, alice, QuestionInput{Title: "t", Content: "c"})
	first, _ := as.Post(ctx, bob, q.ID, "first")
	second, _ := as.Post(ctx, bob, q.ID, "second")

	_, err := as.MarkBest(ctx, bob.ID, first.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = as.MarkBest(ctx, alice.ID, first.ID)
	require.NoError(t, err)
	got, err := as.MarkBest(ctx, alice.ID, second.ID)
	require.NoError(t, err)
	assert.True(t, got.IsBestAnswer)

	detail, err := qs.Get(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, detail.Answers, 2)
	assert.Equal(t, second.ID, detail.Answers[0].ID, "best answer sorts first")
	assert.True(t, detail.Answers[0].IsBestAnswer)
	assert.False(t, detail.Answers[1].IsBestAnswer)
}

func TestUpdateDeleteAnswer_OwnerOnly(t *testing.T) {
	qs, as, alice, bob := newQA(t)
	ctx := context.Background()
	q, _ := qs.Ask(ctx, alice, QuestionInput{Title: "t", Content: "c"})
	a, _ := as.Post(ctx, bob, q.ID, "answer")

	_, err := as.Update(ctx, alice.ID, a.ID, "edited")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	edited, err := as.Update(ctx, bob.ID, a.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Content)

	assert.ErrorIs(t, as.Delete(ctx, alice.ID, a.ID), apperror.ErrForbidden)
	require.NoError(t, as.Delete(ctx, bob.ID, a.ID))

	answers, err := as.List(ctx, q.ID)
	require.NoError(t, err)
	assert.Empty(t, answers)
}
