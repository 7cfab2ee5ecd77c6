// Package services holds the domain rules: recipe composition, the favorites
// and shopping list toggles, the shopping list aggregate and the follow graph.
package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/anonto42/foodgram/backend/internal/apperrors"
	"github.com/anonto42/foodgram/backend/internal/images"
	"github.com/anonto42/foodgram/backend/internal/models"
	"github.com/anonto42/foodgram/backend/internal/repositories"
	"github.com/anonto42/foodgram/backend/pkg/logger"
)

// ImageStore persists recipe images.
type ImageStore interface {
	Save(data []byte) (*images.Stored, error)
	Delete(path string) error
}

// RecipeDraft is the write shape of a recipe. A nil field was not supplied.
type RecipeDraft struct {
	Name        *string
	Text        *string
	Image       *string // base64 data URI
	CookingTime *int
	Tags        *[]uint
	Ingredients *[]models.IngredientAmountRequest
}

// RecipeQuery filters a recipe listing. The membership flags only apply to
// an authenticated viewer.
type RecipeQuery struct {
	TagSlugs           []string
	AuthorID           uint
	FavoritedOnly      bool
	InShoppingListOnly bool
}

type RecipeService struct {
	store    *repositories.Store
	images   ImageStore
	mediaURL string
	log      *logger.Logger
}

func NewRecipeService(store *repositories.Store, images ImageStore, mediaURL string, log *logger.Logger) *RecipeService {
	return &RecipeService{store: store, images: images, mediaURL: mediaURL, log: log}
}

// Create validates the draft and stores the recipe, its tags and its
// ingredient lines in one transaction.
func (s *RecipeService) Create(ctx context.Context, authorID uint, draft RecipeDraft) (*models.RecipeResponse, error) {
	if err := validateDraft(draft, true); err != nil {
		return nil, err
	}

	stored, err := s.storeImage(draft.Image)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        *draft.Name,
		Text:        *draft.Text,
		CookingTime: *draft.CookingTime,
	}
	if stored != nil {
		recipe.Image, recipe.ImageBlurHash = stored.Path, stored.BlurHash
	}

	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if err := checkReferences(ctx, tx, draft); err != nil {
			return err
		}
		if err := tx.Recipes.CreateRecipe(ctx, recipe); err != nil {
			return err
		}
		if err := tx.Recipes.ReplaceTags(ctx, recipe.ID, *draft.Tags); err != nil {
			return err
		}
		return tx.Recipes.ReplaceIngredients(ctx, recipe.ID, toLines(*draft.Ingredients))
	})
	if err != nil {
		s.discardImage(stored)
		return nil, err
	}

	s.log.Info("Recipe created", "recipe_id", recipe.ID, "author_id", authorID)
	return s.Get(ctx, authorID, recipe.ID)
}

// Update applies the supplied draft fields. Supplied tags and ingredients
// replace the whole set; everything else is left untouched.
func (s *RecipeService) Update(ctx context.Context, actorID, recipeID uint, draft RecipeDraft) (*models.RecipeResponse, error) {
	current, err := s.owned(ctx, actorID, recipeID)
	if err != nil {
		return nil, err
	}
	if err := validateDraft(draft, false); err != nil {
		return nil, err
	}

	stored, err := s.storeImage(draft.Image)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if draft.Name != nil {
		fields["name"] = *draft.Name
	}
	if draft.Text != nil {
		fields["text"] = *draft.Text
	}
	if draft.CookingTime != nil {
		fields["cooking_time"] = *draft.CookingTime
	}
	if stored != nil {
		fields["image"] = stored.Path
		fields["image_blurhash"] = stored.BlurHash
	}

	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if err := checkReferences(ctx, tx, draft); err != nil {
			return err
		}
		if err := tx.Recipes.UpdateRecipe(ctx, recipeID, fields); err != nil {
			return err
		}
		if draft.Tags != nil {
			if err := tx.Recipes.ReplaceTags(ctx, recipeID, *draft.Tags); err != nil {
				return err
			}
		}
		if draft.Ingredients != nil {
			return tx.Recipes.ReplaceIngredients(ctx, recipeID, toLines(*draft.Ingredients))
		}
		return nil
	})
	if err != nil {
		s.discardImage(stored)
		return nil, err
	}
	if stored != nil {
		s.removeImage(current.Image)
	}

	return s.Get(ctx, actorID, recipeID)
}

// SetImage replaces the recipe image with an uploaded file.
func (s *RecipeService) SetImage(ctx context.Context, actorID, recipeID uint, data []byte) (*models.RecipeResponse, error) {
	current, err := s.owned(ctx, actorID, recipeID)
	if err != nil {
		return nil, err
	}
	stored, err := s.images.Save(data)
	if err != nil {
		return nil, imageError(err)
	}
	err = s.store.Recipes.UpdateRecipe(ctx, recipeID, map[string]interface{}{
		"image":          stored.Path,
		"image_blurhash": stored.BlurHash,
	})
	if err != nil {
		s.discardImage(stored)
		return nil, err
	}
	s.removeImage(current.Image)
	return s.Get(ctx, actorID, recipeID)
}

// Delete removes the recipe; only its author may do so.
func (s *RecipeService) Delete(ctx context.Context, actorID, recipeID uint) error {
	current, err := s.owned(ctx, actorID, recipeID)
	if err != nil {
		return err
	}
	if err := s.store.Recipes.DeleteRecipe(ctx, recipeID); err != nil {
		return err
	}
	s.removeImage(current.Image)
	s.log.Info("Recipe deleted", "recipe_id", recipeID, "author_id", actorID)
	return nil
}

// DeleteAuthor removes the user and, through the cascade, their recipes.
// Image files are removed once the rows are gone.
func (s *RecipeService) DeleteAuthor(ctx context.Context, userID uint) error {
	recipes, err := s.store.Recipes.GetRecipesByAuthor(ctx, userID, 0)
	if err != nil {
		return err
	}
	if err := s.store.Users.DeleteUser(ctx, userID); err != nil {
		return err
	}
	for _, r := range recipes {
		s.removeImage(r.Image)
	}
	return nil
}

// Get returns the recipe annotated for viewerID (0 for anonymous).
func (s *RecipeService) Get(ctx context.Context, viewerID, recipeID uint) (*models.RecipeResponse, error) {
	recipe, err := s.store.Recipes.GetRecipeByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	out, err := s.annotate(ctx, viewerID, []models.Recipe{*recipe})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// List returns a page of recipes matching q and the total number of matches.
func (s *RecipeService) List(ctx context.Context, viewerID uint, q RecipeQuery, page Page) ([]models.RecipeResponse, int64, error) {
	filter := repositories.RecipeFilter{TagSlugs: q.TagSlugs, AuthorID: q.AuthorID}
	if viewerID != 0 {
		if q.FavoritedOnly {
			filter.FavoritedBy = viewerID
		}
		if q.InShoppingListOnly {
			filter.InShoppingListOf = viewerID
		}
	}
	recipes, total, err := s.store.Recipes.GetRecipes(ctx, filter, page.Offset(), page.Limit())
	if err != nil {
		return nil, 0, err
	}
	out, err := s.annotate(ctx, viewerID, recipes)
	return out, total, err
}

func (s *RecipeService) annotate(ctx context.Context, viewerID uint, recipes []models.Recipe) ([]models.RecipeResponse, error) {
	recipeIDs := make([]uint, 0, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	favorited, err := s.store.Favorites.RecipeIDs(ctx, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := s.store.ShoppingList.RecipeIDs(ctx, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	following, err := s.store.Follows.GetFollowingIDs(ctx, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]models.RecipeResponse, 0, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		out = append(out, models.NewRecipeResponse(r, models.ViewerFlags{
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			IsSubscribed:     following[r.AuthorID],
		}, s.mediaURL))
	}
	return out, nil
}

func (s *RecipeService) owned(ctx context.Context, actorID, recipeID uint) (*models.Recipe, error) {
	recipe, err := s.store.Recipes.GetRecipeByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != actorID {
		return nil, apperrors.Forbidden("only the author can change this recipe")
	}
	return recipe, nil
}

func (s *RecipeService) storeImage(uri *string) (*images.Stored, error) {
	if uri == nil || *uri == "" {
		return nil, nil
	}
	data, err := images.DecodeDataURI(*uri)
	if err != nil {
		return nil, imageError(err)
	}
	stored, err := s.images.Save(data)
	if err != nil {
		return nil, imageError(err)
	}
	return stored, nil
}

func (s *RecipeService) discardImage(stored *images.Stored) {
	if stored != nil {
		s.removeImage(stored.Path)
	}
}

func (s *RecipeService) removeImage(path string) {
	if err := s.images.Delete(path); err != nil {
		s.log.Warn("Failed to remove recipe image", "path", path, "error", err)
	}
}

func imageError(err error) error {
	return apperrors.ValidationWithDetails("invalid image", map[string]string{"image": err.Error()})
}

// validateDraft checks field bounds and duplicates. With requireAll every
// field except the image must be supplied.
func validateDraft(d RecipeDraft, requireAll bool) error {
	fields := map[string]string{}
	required := func(name string, present bool) {
		if requireAll && !present {
			fields[name] = "is required"
		}
	}

	required("name", d.Name != nil)
	if d.Name != nil && (len(*d.Name) == 0 || len([]rune(*d.Name)) > 200) {
		fields["name"] = "must be between 1 and 200 characters"
	}
	required("text", d.Text != nil)
	if d.Text != nil && *d.Text == "" {
		fields["text"] = "must not be empty"
	}
	required("cooking_time", d.CookingTime != nil)
	if d.CookingTime != nil && (*d.CookingTime < models.MinCookingTime || *d.CookingTime > models.MaxCookingTime) {
		fields["cooking_time"] = fmt.Sprintf("must be between %d and %d", models.MinCookingTime, models.MaxCookingTime)
	}

	required("tags", d.Tags != nil)
	if d.Tags != nil {
		if len(*d.Tags) == 0 {
			fields["tags"] = "at least one tag is required"
		} else if id, dup := firstDuplicate(*d.Tags); dup {
			fields["tags"] = "duplicate tag " + strconv.FormatUint(uint64(id), 10)
		}
	}

	required("ingredients", d.Ingredients != nil)
	if d.Ingredients != nil {
		lines := *d.Ingredients
		ids := make([]uint, 0, len(lines))
		for i, line := range lines {
			ids = append(ids, line.ID)
			if line.Amount < models.MinAmount {
				fields[fmt.Sprintf("ingredients[%d].amount", i)] = fmt.Sprintf("must be at least %d", models.MinAmount)
			}
		}
		if len(lines) == 0 {
			fields["ingredients"] = "at least one ingredient is required"
		} else if id, dup := firstDuplicate(ids); dup {
			fields["ingredients"] = "duplicate ingredient " + strconv.FormatUint(uint64(id), 10)
		}
	}

	if len(fields) > 0 {
		return apperrors.ValidationWithDetails("invalid recipe", fields)
	}
	return nil
}

// checkReferences verifies that every tag and ingredient in the draft exists.
func checkReferences(ctx context.Context, tx *repositories.Store, d RecipeDraft) error {
	if d.Tags != nil {
		tags, err := tx.Tags.GetTagsByIDs(ctx, *d.Tags)
		if err != nil {
			return err
		}
		if missing, ok := firstMissing(*d.Tags, tagIDs(tags)); ok {
			return apperrors.NotFound(fmt.Sprintf("tag %d not found", missing)).
				WithDetails(map[string]string{"tags": "unknown tag " + strconv.FormatUint(uint64(missing), 10)})
		}
	}
	if d.Ingredients != nil {
		ids := make([]uint, 0, len(*d.Ingredients))
		for _, line := range *d.Ingredients {
			ids = append(ids, line.ID)
		}
		found, err := tx.Ingredients.GetIngredientsByIDs(ctx, ids)
		if err != nil {
			return err
		}
		known := make([]uint, 0, len(found))
		for _, ing := range found {
			known = append(known, ing.ID)
		}
		if missing, ok := firstMissing(ids, known); ok {
			return apperrors.NotFound(fmt.Sprintf("ingredient %d not found", missing)).
				WithDetails(map[string]string{"ingredients": "unknown ingredient " + strconv.FormatUint(uint64(missing), 10)})
		}
	}
	return nil
}

func toLines(reqs []models.IngredientAmountRequest) []models.IngredientAmount {
	lines := make([]models.IngredientAmount, 0, len(reqs))
	for _, r := range reqs {
		lines = append(lines, models.IngredientAmount{IngredientID: r.ID, Amount: r.Amount})
	}
	return lines
}

func tagIDs(tags []models.Tag) []uint {
	ids := make([]uint, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return ids
}

func firstDuplicate(ids []uint) (uint, bool) {
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id, true
		}
		seen[id] = struct{}{}
	}
	return 0, false
}

func firstMissing(want, have []uint) (uint, bool) {
	known := make(map[uint]struct{}, len(have))
	for _, id := range have {
		known[id] = struct{}{}
	}
	for _, id := range want {
		if _, ok := known[id]; !ok {
			return id, true
		}
	}
	return 0, false
}
