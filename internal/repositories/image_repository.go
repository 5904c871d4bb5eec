package repository

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/config"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/utils"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const ImageCollection = "images"

type ImageRepository interface {
	// FindImagesForProducts returns every image attached to any of the given products, in all colors.
	FindImagesForProducts(ctx context.Context, productIDs []uuid.UUID) ([]models.Image, error)
	FindImagesByColor(ctx context.Context, productID uuid.UUID, color string) ([]models.Image, error)
	// ColorsWithImages lists, sorted, the colors a product has at least one image for.
	ColorsWithImages(ctx context.Context, productID uuid.UUID) ([]string, error)
}

type imageRepository struct {
	collection *mongo.Collection
}

func NewImageRepo(db *mongo.Database) ImageRepository {
	return &imageRepository{collection: db.Collection(ImageCollection)}
}

func NewMongoClient(ctx context.Context, cfg *config.Mongo) (*mongo.Client, error) {

	connectCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	slog.Info("✅ Successfully connected to MongoDB", slog.String("database", cfg.Database))

	return client, nil
}

func (r *imageRepository) FindImagesForProducts(ctx context.Context, productIDs []uuid.UUID) ([]models.Image, error) {
	if len(productIDs) == 0 {
		return []models.Image{}, nil
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	ids := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		ids = append(ids, id.String())
	}

	filter := bson.M{"product_id": bson.M{"$in": ids}}

	cursor, err := r.collection.Find(dbCtx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}

	defer cursor.Close(dbCtx)

	images := []models.Image{}
	if err := cursor.All(dbCtx, &images); err != nil {
		return nil, fmt.Errorf("failed to decode images: %w", err)
	}

	return images, nil
}

func (r *imageRepository) FindImagesByColor(ctx context.Context, productID uuid.UUID, color string) ([]models.Image, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	filter := bson.M{"product_id": productID.String(), "color": color}

	cursor, err := r.collection.Find(dbCtx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query images by color: %w", err)
	}

	defer cursor.Close(dbCtx)

	images := []models.Image{}
	if err := cursor.All(dbCtx, &images); err != nil {
		return nil, fmt.Errorf("failed to decode images: %w", err)
	}

	return images, nil
}

func (r *imageRepository) ColorsWithImages(ctx context.Context, productID uuid.UUID) ([]string, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	values, err := r.collection.Distinct(dbCtx, "color", bson.M{"product_id": productID.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to list image colors: %w", err)
	}

	colors := make([]string, 0, len(values))
	for _, v := range values {
		if color, ok := v.(string); ok && color != "" {
			colors = append(colors, color)
		}
	}

	slices.Sort(colors)

	return colors, nil
}
