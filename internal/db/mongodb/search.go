package mongodb

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AI2HU/bulletcalc/internal/shared"
)

// calculationQuery builds the find filter for calculations
func calculationQuery(filter shared.CalculationFilter) bson.M {
	query := bson.M{}

	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.ProfileID != "" {
		query["profile_id"] = filter.ProfileID
	}
	if filter.StartTime != nil || filter.EndTime != nil {
		timeQuery := bson.M{}
		if filter.StartTime != nil {
			timeQuery["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeQuery["$lte"] = *filter.EndTime
		}
		query["created_at"] = timeQuery
	}

	return query
}

// profileQuery builds the find filter for profiles. Search is matched as a
// literal, case-insensitive substring of the name.
func profileQuery(filter shared.ProfileFilter) bson.M {
	query := bson.M{}

	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.Caliber != "" {
		query["caliber"] = bson.M{"$regex": "^" + regexp.QuoteMeta(filter.Caliber) + "$", "$options": "i"}
	}
	if filter.Search != "" {
		query["name"] = bson.M{"$regex": regexp.QuoteMeta(filter.Search), "$options": "i"}
	}

	return query
}

func applyPaging(opts *options.FindOptions, limit, offset int) {
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
}
