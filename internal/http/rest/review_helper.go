package rest

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bwise1/roadwatch/internal/model"
	"github.com/bwise1/roadwatch/internal/review"
	"github.com/bwise1/roadwatch/util/values"
)

func (api *API) panelHelper(id, rawRoadID string) (*review.Panel, string, string, error) {
	roadID, err := strconv.ParseInt(rawRoadID, 10, 64)
	if err != nil || roadID <= 0 {
		return nil, values.BadRequestBody, "invalid road id", fmt.Errorf("invalid road id %q", rawRoadID)
	}

	s, status, message, err := api.session(id)
	if err != nil {
		return nil, status, message, err
	}
	return s.Panel(roadID), values.Success, "", nil
}

// parseReviewForm reads the multipart review form. A missing tags field
// means the panel's toggled selection is used.
func parseReviewForm(r *http.Request, roadID int64) (model.ReviewForm, string, string, error) {
	form := model.ReviewForm{RoadID: roadID}

	if err := r.ParseMultipartForm(maxReviewUpload); err != nil && err != http.ErrNotMultipart {
		return form, values.BadRequestBody, "unable to read review form", err
	}

	form.Comment = r.FormValue("comment")
	form.Location = r.FormValue("location")

	if raw, ok := r.Form["tags"]; ok {
		form.Tags = review.SplitTags(raw)
	}

	if raw := strings.TrimSpace(r.FormValue("rating")); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil {
			return form, values.Unprocessable, "rating must be a whole number between 1 and 5", err
		}
		form.Rating = rating
	}

	file, header, err := r.FormFile("media_file")
	switch {
	case err == http.ErrMissingFile:
	case err != nil:
		if err != http.ErrNotMultipart {
			return form, values.BadRequestBody, "unable to read media file", err
		}
	default:
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return form, values.BadRequestBody, "unable to read media file", err
		}
		form.Media = &model.Media{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}
	}

	return form, values.Success, "", nil
}
