package api

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	apierrors "github.com/lokhin/coursechat/internal/errors"
	"github.com/lokhin/coursechat/internal/models"
)

// ListCourses returns the courses the user is enrolled in, with the last
// ingestion times per source.
func (c *Client) ListCourses(ctx context.Context, email string) ([]models.Course, error) {
	if email == "" {
		return nil, fmt.Errorf("email cannot be empty")
	}

	body, err := c.postJSON(ctx, models.PathUserCourses, map[string]string{"email": email})
	if err != nil {
		return nil, err
	}

	parsed := gjson.ParseBytes(body)
	if success := parsed.Get("success"); success.Exists() && !success.Bool() {
		return nil, apierrors.NewStatusError(0, models.PathUserCourses, parsed.Get("message").String())
	}

	var courses []models.Course
	parsed.Get("data").ForEach(func(_, value gjson.Result) bool {
		courses = append(courses, models.Course{
			ID:               int(value.Get("id").Int()),
			Name:             value.Get("name").String(),
			UpdateTimeMoodle: value.Get("update_time_moodle").String(),
			UpdateTimeExam:   value.Get("update_time_exambase").String(),
		})
		return true
	})

	return courses, nil
}
