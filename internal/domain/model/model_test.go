package model_test

import (
	"encoding/json"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	model "github.com/okian/bullseye/internal/domain/model"
)

func TestTrainingImage(t *testing.T) {
	convey.Convey("Given a training image from the backend", t, func() {
		raw := `{"id":12,"filename":"t1.jpg","session_id":4,"athlete_id":null,"shots_count":2,
			"total_score":19,"scored_path":"/s.png","original_path":"/o.jpg","created_at":"2025-03-01T10:00:00",
			"shots":[{"id":1,"auto_score":10,"final_score":null},{"id":2,"auto_score":9,"final_score":8}]}`
		var img model.TrainingImage
		convey.So(json.Unmarshal([]byte(raw), &img), convey.ShouldBeNil)

		convey.Convey("Then views keep the fixed preference order", func() {
			views := img.Views()
			convey.So(views, convey.ShouldHaveLength, 2)
			convey.So(views[0].Kind, convey.ShouldEqual, model.ViewScored)
			convey.So(views[1].Kind, convey.ShouldEqual, model.ViewOriginal)
			convey.So(img.Viewable(), convey.ShouldBeTrue)
		})

		convey.Convey("Then shot scores fall back to the automatic score", func() {
			convey.So(img.Shots[0].Score(), convey.ShouldEqual, 10)
			convey.So(img.Shots[1].Score(), convey.ShouldEqual, 8)
			convey.So(img.AthleteID, convey.ShouldBeNil)
		})

		convey.Convey("Then the label falls back to the id", func() {
			convey.So(img.Label(), convey.ShouldEqual, "t1.jpg")
			convey.So(model.TrainingImage{ID: 9}.Label(), convey.ShouldEqual, "#9")
		})
	})
}

func TestSessionSummary(t *testing.T) {
	convey.Convey("Given a browser row", t, func() {
		finished := "2025-03-01 12:00:00"
		row := model.SessionSummary{
			ID: 3, Name: "Morning", FinishedAt: &finished,
			Athletes: []model.AthleteRef{{ID: 3, Name: "A"}, {ID: 7, Name: "B"}},
		}

		convey.Convey("Then it converts to a finished session", func() {
			s := row.AsSession()
			convey.So(s.Finished, convey.ShouldBeTrue)
			convey.So(s.AthleteIDs, convey.ShouldResemble, []int{3, 7})
		})

		convey.Convey("Then pages round up", func() {
			convey.So(model.SessionPage{Total: 21, PerPage: 10}.Pages(), convey.ShouldEqual, 3)
			convey.So(model.SessionPage{}.Pages(), convey.ShouldEqual, 0)
		})
	})
}
