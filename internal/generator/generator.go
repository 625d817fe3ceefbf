// Package generator builds sample quiz activity for demos.
package generator

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/versequiz/quizstats/internal/model"
)

// Book is a quiz book and its chapter count.
type Book struct {
	Name     string
	Chapters int
}

// DefaultBooks is the sample library used when Options.Books is empty.
var DefaultBooks = []Book{
	{Name: "Genesis", Chapters: 50},
	{Name: "Ruth", Chapters: 4},
	{Name: "Esther", Chapters: 10},
	{Name: "Matthew", Chapters: 28},
	{Name: "John", Chapters: 21},
	{Name: "Acts", Chapters: 28},
	{Name: "Romans", Chapters: 16},
	{Name: "Hebrews", Chapters: 13},
}

type tier struct {
	name   string
	points int
}

var tiers = []tier{
	{name: "bronze", points: 10},
	{name: "silver", points: 20},
	{name: "gold", points: 30},
}

// Options controls the shape of generated activity.
type Options struct {
	TeamID string
	Users  []string
	// Days is the number of calendar days ending with the day containing End.
	Days            int
	End             time.Time
	QuestionsPerDay int
	// StudyRate is the chance a user studies on a given day.
	StudyRate float64
	Books     []Book
	// WeakBooks are answered correctly less often and drawn more often.
	WeakBooks  map[string]struct{}
	WeakFactor float64
}

// Generator produces randomized quiz records.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator. A zero seed uses the current time.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate builds completions and question logs. Records that would land
// after End are skipped.
func (g *Generator) Generate(opts Options) ([]model.CompletionRecord, []model.QuestionLog) {
	books := opts.Books
	if len(books) == 0 {
		books = DefaultBooks
	}
	weights := make([]float64, len(books))
	total := 0.0
	for i, b := range books {
		w := 1.0
		if _, ok := opts.WeakBooks[b.Name]; ok {
			w += opts.WeakFactor
		}
		weights[i] = w
		total += w
	}

	loc := opts.End.Location()
	y, m, d := opts.End.Date()
	lastDay := time.Date(y, m, d, 0, 0, 0, 0, loc)

	var completions []model.CompletionRecord
	var logs []model.QuestionLog
	for offset := opts.Days - 1; offset >= 0; offset-- {
		day := lastDay.AddDate(0, 0, -offset)
		for _, user := range opts.Users {
			if g.rnd.Float64() >= opts.StudyRate {
				continue
			}
			at := day.Add(6*time.Hour + time.Duration(g.rnd.Intn(16*60))*time.Minute)
			if !at.Before(opts.End) {
				continue
			}
			completions = append(completions, model.CompletionRecord{
				ID:          g.id(),
				TeamID:      opts.TeamID,
				UserID:      user,
				Activity:    "quiz",
				CompletedAt: at,
			})
			for q := 0; q < opts.QuestionsPerDay; q++ {
				book := books[g.pickWeighted(weights, total)]
				_, weak := opts.WeakBooks[book.Name]
				l := g.answer(book, weak)
				l.ID = g.id()
				l.TeamID = opts.TeamID
				l.UserID = user
				at = at.Add(time.Duration(l.TimeSpentSeconds) * time.Second)
				if !at.Before(opts.End) {
					break
				}
				l.AnsweredAt = at
				logs = append(logs, l)
			}
		}
	}
	return completions, logs
}

func (g *Generator) answer(book Book, weak bool) model.QuestionLog {
	chapter := 1
	if book.Chapters > 0 {
		chapter = 1 + g.rnd.Intn(book.Chapters)
	}
	t := tiers[g.rnd.Intn(len(tiers))]
	hitRate := 0.85
	spent := 5 + g.rnd.Intn(40)
	if weak {
		hitRate = 0.55
		spent += 15
	}
	correct := g.rnd.Float64() < hitRate
	earned := 0
	if correct {
		earned = t.points
	}
	return model.QuestionLog{
		QuestionID:       questionID(book.Name, chapter, t.name),
		Book:             book.Name,
		Chapter:          chapter,
		Tier:             t.name,
		PointsEarned:     earned,
		PointsPossible:   t.points,
		TimeSpentSeconds: spent,
		IsCorrect:        correct,
	}
}

func (g *Generator) pickWeighted(weights []float64, total float64) int {
	r := g.rnd.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return i
		}
	}
	return len(weights) - 1
}

// id draws UUIDs from the seeded source so a seed reproduces its records.
func (g *Generator) id() string {
	id, err := uuid.NewRandomFromReader(g.rnd)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func questionID(book string, chapter int, tier string) string {
	return fmt.Sprintf("%s-%d-%s", strings.ToLower(book), chapter, tier)
}
