package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/geometry"
	"trip-planner-service/internal/platform/obs"
	"trip-planner-service/internal/ports"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CitiesCollection is the collection holding the catalog.
const CitiesCollection = "cities"

const duplicateKeyCode = 11000

type geoJSONPoint struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

type cityDocument struct {
	GeonameID      int64        `bson:"_id"`
	Name           string       `bson:"name"`
	ASCIIName      string       `bson:"ascii_name"`
	AlternateNames []string     `bson:"alternate_names"`
	Location       geoJSONPoint `bson:"location"`
	FeatureClass   string       `bson:"feature_class"`
	FeatureCode    string       `bson:"feature_code"`
	CountryCode    string       `bson:"country_code"`
	Admin1Code     string       `bson:"admin1_code"`
	Admin2Code     string       `bson:"admin2_code"`
	Admin3Code     string       `bson:"admin3_code"`
	Admin4Code     string       `bson:"admin4_code"`
	Population     int64        `bson:"population"`
	Elevation      int64        `bson:"elevation"`
	Timezone       string       `bson:"timezone"`
	ModifiedAt     string       `bson:"modified_at"`
}

func toCityDocument(c domain.CityRecord) cityDocument {
	return cityDocument{
		GeonameID:      c.GeonameID,
		Name:           c.Name,
		ASCIIName:      c.ASCIIName,
		AlternateNames: c.AlternateNames,
		Location:       geoJSONPoint{Type: "Point", Coordinates: c.GeoPoint().CoordsToList()},
		FeatureClass:   c.FeatureClass,
		FeatureCode:    c.FeatureCode,
		CountryCode:    c.CountryCode,
		Admin1Code:     c.Admin1Code,
		Admin2Code:     c.Admin2Code,
		Admin3Code:     c.Admin3Code,
		Admin4Code:     c.Admin4Code,
		Population:     c.Population,
		Elevation:      c.Elevation,
		Timezone:       c.Timezone,
		ModifiedAt:     c.ModifiedAt,
	}
}

func (d cityDocument) record() (domain.CityRecord, error) {
	if len(d.Location.Coordinates) != 2 {
		return domain.CityRecord{}, fmt.Errorf("city %d: invalid location %v", d.GeonameID, d.Location.Coordinates)
	}
	return domain.CityRecord{
		GeonameID:      d.GeonameID,
		Name:           d.Name,
		ASCIIName:      d.ASCIIName,
		AlternateNames: d.AlternateNames,
		Latitude:       d.Location.Coordinates[1],
		Longitude:      d.Location.Coordinates[0],
		FeatureClass:   d.FeatureClass,
		FeatureCode:    d.FeatureCode,
		CountryCode:    d.CountryCode,
		Admin1Code:     d.Admin1Code,
		Admin2Code:     d.Admin2Code,
		Admin3Code:     d.Admin3Code,
		Admin4Code:     d.Admin4Code,
		Population:     d.Population,
		Elevation:      d.Elevation,
		Timezone:       d.Timezone,
		ModifiedAt:     d.ModifiedAt,
	}, nil
}

// MongoCityStore implements ports.CityStore on a MongoDB collection with a
// 2dsphere index over GeoJSON points.
type MongoCityStore struct {
	coll *mongo.Collection
}

func NewMongoCityStore(db *mongo.Database) *MongoCityStore {
	return &MongoCityStore{coll: db.Collection(CitiesCollection)}
}

func (s *MongoCityStore) Count(ctx context.Context) (_ int64, err error) {
	defer obs.Time(ctx, "catalog.mongo.Count")(&err)

	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count cities: %w", err)
	}
	return n, nil
}

// InsertCities writes one unordered batch. Documents already present are skipped.
func (s *MongoCityStore) InsertCities(ctx context.Context, cities []domain.CityRecord) (err error) {
	defer obs.Time(ctx, "catalog.mongo.InsertCities")(&err)

	if len(cities) == 0 {
		return nil
	}

	docs := make([]cityDocument, 0, len(cities))
	for _, c := range cities {
		docs = append(docs, toCityDocument(c))
	}

	_, err = s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !onlyDuplicateKeys(err) {
		return fmt.Errorf("insert cities: %w", err)
	}
	return nil
}

func onlyDuplicateKeys(err error) bool {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 {
		return false
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != duplicateKeyCode {
			return false
		}
	}
	return true
}

func (s *MongoCityStore) EnsureIndexes(ctx context.Context) (err error) {
	defer obs.Time(ctx, "catalog.mongo.EnsureIndexes")(&err)

	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "population", Value: -1}}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("ensure city indexes: %w", err)
	}
	return nil
}

func (s *MongoCityStore) Truncate(ctx context.Context) error {
	if _, err := s.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("truncate cities: %w", err)
	}
	return nil
}

// nearbyFilter selects documents inside the spherical cap around the center.
func nearbyFilter(q ports.NearbyQuery) bson.D {
	radians := math.Min(geometry.AngleForKm(q.RadiusKm).Radians(), math.Pi)

	excluded := make(bson.A, 0, len(q.ExcludedNames))
	for name := range q.ExcludedNames {
		excluded = append(excluded, name)
	}

	return bson.D{
		{Key: "location", Value: bson.D{
			{Key: "$geoWithin", Value: bson.D{
				{Key: "$centerSphere", Value: bson.A{q.Center.CoordsToList(), radians}},
			}},
		}},
		{Key: "population", Value: bson.D{{Key: "$gte", Value: q.MinPopulation}}},
		{Key: "name", Value: bson.D{{Key: "$nin", Value: excluded}}},
	}
}

func (s *MongoCityStore) FindNearby(ctx context.Context, q ports.NearbyQuery) (_ []domain.CityRecord, err error) {
	defer obs.Time(ctx, "catalog.mongo.FindNearby")(&err)

	if err := q.Center.Validate(); err != nil {
		return nil, err
	}
	if q.Limit <= 0 || q.RadiusKm < 0 || math.IsNaN(q.RadiusKm) {
		return []domain.CityRecord{}, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "population", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(q.Limit))

	cursor, err := s.coll.Find(ctx, nearbyFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("find nearby cities: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []cityDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("find nearby cities: decode: %w", err)
	}

	out := make([]domain.CityRecord, 0, len(docs))
	for _, d := range docs {
		rec, err := d.record()
		if err != nil {
			return nil, fmt.Errorf("find nearby cities: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
