// Package seed loads demo content through the services, so seeded posts pass the
// same validation and read-time calculation as posts written through the API.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"

	"lsablog/internal/middleware"
	"lsablog/internal/models"
	"lsablog/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Fixtures is the YAML document of hand-written demo content.
type Fixtures struct {
	Authors []FixtureAuthor `yaml:"authors"`
	Posts   []FixturePost   `yaml:"posts"`
}

type FixtureAuthor struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Image  string `yaml:"image"`
	Social string `yaml:"social"`
}

type FixturePost struct {
	Author     string          `yaml:"author"`
	Title      string          `yaml:"title"`
	Excerpt    string          `yaml:"excerpt"`
	Content    string          `yaml:"content"`
	Category   models.Category `yaml:"category"`
	CoverImage string          `yaml:"cover_image"`
	Published  bool            `yaml:"published"`
}

// LoadFixtures decodes a fixtures document and checks author references.
func LoadFixtures(r io.Reader) (*Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	known := make(map[string]bool, len(f.Authors))
	for _, a := range f.Authors {
		if a.ID == "" {
			return nil, fmt.Errorf("fixture author %q has no id", a.Name)
		}
		known[a.ID] = true
	}
	for i, p := range f.Posts {
		if !known[p.Author] {
			return nil, fmt.Errorf("fixture post %d (%q) references unknown author %q", i, p.Title, p.Author)
		}
	}
	return &f, nil
}

// DefaultFixtures returns the embedded demo content.
func DefaultFixtures() (*Fixtures, error) {
	return LoadFixtures(bytes.NewReader(defaultFixtures))
}

// Options controls how much content is generated.
type Options struct {
	// Fixtures are created first when set.
	Fixtures *Fixtures
	// FakePosts adds generated published posts.
	FakePosts int
	// MaxComments bounds the generated comments per post.
	MaxComments int
	// MaxLikes bounds the generated member likes per post.
	MaxLikes int
	// RandomSeed makes generated content reproducible.
	RandomSeed int64
}

// Summary counts what a run created.
type Summary struct {
	Posts    int
	Comments int
	Likes    int
}

// Seeder writes demo content through the services.
type Seeder struct {
	posts    *service.PostService
	comments *service.CommentService
	likes    *service.LikeService
}

func NewSeeder(posts *service.PostService, comments *service.CommentService, likes *service.LikeService) *Seeder {
	return &Seeder{posts: posts, comments: comments, likes: likes}
}

// Run creates the fixtures and the generated content.
func (s *Seeder) Run(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary
	faker := gofakeit.New(opts.RandomSeed)

	var created []*models.Post
	if opts.Fixtures != nil {
		authors := make(map[string]*models.ActingUser, len(opts.Fixtures.Authors))
		for _, a := range opts.Fixtures.Authors {
			authors[a.ID] = &models.ActingUser{ID: a.ID, DisplayName: a.Name, AvatarURL: a.Image}
		}
		byline := make(map[string]FixtureAuthor, len(opts.Fixtures.Authors))
		for _, a := range opts.Fixtures.Authors {
			byline[a.ID] = a
		}

		for _, fp := range opts.Fixtures.Posts {
			a := byline[fp.Author]
			post, err := s.posts.CreatePost(ctx, service.CreatePostInput{
				Title:      fp.Title,
				Excerpt:    fp.Excerpt,
				Content:    fp.Content,
				Author:     models.Author{Name: a.Name, Image: a.Image, Social: a.Social},
				Category:   fp.Category,
				CoverImage: fp.CoverImage,
				Published:  fp.Published,
			}, authors[fp.Author])
			if err != nil {
				return sum, fmt.Errorf("seed fixture %q: %w", fp.Title, err)
			}
			created = append(created, post)
			sum.Posts++
		}
	}

	for range opts.FakePosts {
		author := fakeUser(faker)
		post, err := s.posts.CreatePost(ctx, service.CreatePostInput{
			Title:      faker.Sentence(6),
			Excerpt:    faker.Sentence(18),
			Content:    faker.Paragraph(3, 5, 14, "\n\n"),
			Category:   models.Categories[faker.Number(0, len(models.Categories)-1)],
			CoverImage: fmt.Sprintf("https://picsum.photos/seed/%s/1200/630", faker.UUID()),
			Published:  true,
		}, author)
		if err != nil {
			return sum, fmt.Errorf("seed generated post: %w", err)
		}
		created = append(created, post)
		sum.Posts++
	}

	for _, post := range created {
		if !post.Published {
			continue
		}
		n, err := s.engage(ctx, faker, post, opts)
		if err != nil {
			return sum, err
		}
		sum.Comments += n.Comments
		sum.Likes += n.Likes
	}

	middleware.Logger.InfoContext(ctx, "seed complete",
		slog.Int("posts", sum.Posts), slog.Int("comments", sum.Comments), slog.Int("likes", sum.Likes))
	return sum, nil
}

func (s *Seeder) engage(ctx context.Context, faker *gofakeit.Faker, post *models.Post, opts Options) (Summary, error) {
	var sum Summary
	if opts.MaxComments > 0 {
		for range faker.Number(0, opts.MaxComments) {
			anonymous := faker.Bool()
			in := service.AddCommentInput{PostID: post.ID, Content: faker.Sentence(12), IsAnonymous: anonymous}
			if !anonymous {
				in.Author = faker.Name()
			}
			if _, err := s.comments.AddComment(ctx, in, nil); err != nil {
				return sum, fmt.Errorf("seed comment on %s: %w", post.ID, err)
			}
			sum.Comments++
		}
	}
	if opts.MaxLikes > 0 {
		for i := range faker.Number(0, opts.MaxLikes) {
			userID := fmt.Sprintf("seed-reader-%d", i)
			if _, err := s.likes.ToggleLike(ctx, post.ID, userID); err != nil {
				return sum, fmt.Errorf("seed like on %s: %w", post.ID, err)
			}
			sum.Likes++
		}
	}
	return sum, nil
}

func fakeUser(faker *gofakeit.Faker) *models.ActingUser {
	return &models.ActingUser{
		ID:          "seed-" + faker.UUID(),
		DisplayName: faker.Name(),
		AvatarURL:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", faker.UUID()),
		Email:       faker.Email(),
	}
}
