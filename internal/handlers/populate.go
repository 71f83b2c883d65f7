package handlers

import (
	"context"

	"github.com/meshvault/backend/internal/models"
	"github.com/meshvault/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The helpers below are the query-time joins standing in for stored
// relations: owners are resolved to their public projection (name + avatar),
// replies are looked up by parent reference.

func populateComments(ctx context.Context, commentRepo repositories.CommentRepository, userRepo repositories.UserRepository, comments []models.Comment, withReplies bool) ([]models.PopulatedComment, error) {
	replies := make(map[primitive.ObjectID][]models.Comment)
	userIDs := make([]primitive.ObjectID, 0, len(comments))
	for _, comment := range comments {
		userIDs = append(userIDs, comment.User)
		if withReplies {
			children, err := commentRepo.ListByParentID(ctx, comment.ID)
			if err != nil {
				return nil, err
			}
			replies[comment.ID] = children
			for _, child := range children {
				userIDs = append(userIDs, child.User)
			}
		}
	}

	users, err := userRepo.GetPublicByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	populated := make([]models.PopulatedComment, 0, len(comments))
	for _, comment := range comments {
		item := models.PopulatedComment{Comment: comment, User: users[comment.User]}
		if withReplies {
			for _, child := range replies[comment.ID] {
				item.Replies = append(item.Replies, models.PopulatedComment{Comment: child, User: users[child.User]})
			}
		}
		populated = append(populated, item)
	}
	return populated, nil
}

func populateComment(ctx context.Context, commentRepo repositories.CommentRepository, userRepo repositories.UserRepository, comment *models.Comment, withReplies bool) (*models.PopulatedComment, error) {
	populated, err := populateComments(ctx, commentRepo, userRepo, []models.Comment{*comment}, withReplies)
	if err != nil {
		return nil, err
	}
	return &populated[0], nil
}

func populateRatings(ctx context.Context, userRepo repositories.UserRepository, ratings []models.Rating) ([]models.PopulatedRating, error) {
	userIDs := make([]primitive.ObjectID, 0, len(ratings))
	for _, rating := range ratings {
		userIDs = append(userIDs, rating.User)
	}
	users, err := userRepo.GetPublicByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	populated := make([]models.PopulatedRating, 0, len(ratings))
	for _, rating := range ratings {
		populated = append(populated, models.PopulatedRating{Rating: rating, User: users[rating.User]})
	}
	return populated, nil
}

func modelsWithOwners(ctx context.Context, userRepo repositories.UserRepository, list []models.Model) ([]models.ModelWithOwner, error) {
	userIDs := make([]primitive.ObjectID, 0, len(list))
	for _, model := range list {
		userIDs = append(userIDs, model.User)
	}
	users, err := userRepo.GetPublicByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	result := make([]models.ModelWithOwner, 0, len(list))
	for _, model := range list {
		result = append(result, models.ModelWithOwner{Model: model, User: users[model.User]})
	}
	return result, nil
}

func tutorialsWithOwners(ctx context.Context, userRepo repositories.UserRepository, list []models.Tutorial) ([]models.TutorialWithOwner, error) {
	userIDs := make([]primitive.ObjectID, 0, len(list))
	for _, tutorial := range list {
		userIDs = append(userIDs, tutorial.User)
	}
	users, err := userRepo.GetPublicByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	result := make([]models.TutorialWithOwner, 0, len(list))
	for _, tutorial := range list {
		result = append(result, models.TutorialWithOwner{Tutorial: tutorial, User: users[tutorial.User]})
	}
	return result, nil
}
