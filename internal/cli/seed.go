package cli

import (
	"fmt"
	"os"

	"lsablog/internal/database"
	"lsablog/internal/repository"
	"lsablog/internal/seed"
	"lsablog/internal/service"

	"github.com/spf13/cobra"
)

type seedOptions struct {
	fixturesPath string
	skipFixtures bool
	fakePosts    int
	maxComments  int
	maxLikes     int
	randomSeed   int64
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	so := &seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo posts, comments and likes",
		Long: `Seed writes the bundled fixture posts (or the file given with --fixtures)
and optionally generated posts with random engagement. The schema is applied first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if so.fakePosts < 0 || so.maxComments < 0 || so.maxLikes < 0 {
				return fmt.Errorf("--fake-posts, --max-comments and --max-likes must not be negative")
			}

			run := seed.Options{
				FakePosts:   so.fakePosts,
				MaxComments: so.maxComments,
				MaxLikes:    so.maxLikes,
				RandomSeed:  so.randomSeed,
			}
			if !so.skipFixtures {
				fixtures, err := loadFixtures(so.fixturesPath)
				if err != nil {
					return err
				}
				run.Fixtures = fixtures
			}

			cfg, err := opts.resolveConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			db, closeDB, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			ctx := commandContext(cmd)
			if err := database.ApplySchema(ctx, db, cfg); err != nil {
				return err
			}

			stores := repository.NewStores(db)
			seeder := seed.NewSeeder(
				service.NewPostService(stores.Posts, stores.Likes),
				service.NewCommentService(stores.Posts, stores.Comments),
				service.NewLikeService(stores.Posts, stores.Likes),
			)
			summary, err := seeder.Run(ctx, run)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d posts, %d comments, %d likes\n",
				summary.Posts, summary.Comments, summary.Likes)
			return nil
		},
	}

	cmd.Flags().StringVarP(&so.fixturesPath, "fixtures", "f", "", "YAML fixtures file (defaults to the bundled set)")
	cmd.Flags().BoolVar(&so.skipFixtures, "skip-fixtures", false, "only generate fake content")
	cmd.Flags().IntVar(&so.fakePosts, "fake-posts", 0, "number of generated published posts")
	cmd.Flags().IntVar(&so.maxComments, "max-comments", 3, "upper bound of generated comments per post")
	cmd.Flags().IntVar(&so.maxLikes, "max-likes", 5, "upper bound of generated member likes per post")
	cmd.Flags().Int64Var(&so.randomSeed, "seed", 1, "random seed for generated content")

	return cmd
}

func loadFixtures(path string) (*seed.Fixtures, error) {
	if path == "" {
		return seed.DefaultFixtures()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return seed.LoadFixtures(f)
}
