package model

import "time"

// Question is a forum post. Tags are stored lower-cased and trimmed.
type Question struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    Profile   `json:"authorId"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Answer replies to a Question. At most one answer per question has
// IsBestAnswer set.
type Answer struct {
	ID           string    `json:"id"`
	QuestionID   string    `json:"questionId"`
	Content      string    `json:"content"`
	Author       Profile   `json:"authorId"`
	Votes        int       `json:"votes"`
	IsBestAnswer bool      `json:"isBestAnswer"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// QuestionPage is one page of the question listing.
type QuestionPage struct {
	Questions      []Question `json:"questions"`
	TotalPages     int        `json:"totalPages"`
	CurrentPage    int        `json:"currentPage"`
	TotalQuestions int        `json:"totalQuestions"`
}

// QuestionDetail is a question together with its sorted answers.
type QuestionDetail struct {
	Question *Question `json:"question"`
	Answers  []Answer  `json:"answers"`
}
