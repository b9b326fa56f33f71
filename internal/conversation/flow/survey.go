package flow

import (
	"context"
	"maps"
	"strings"

	"github.com/explrms/secretSanta/internal/channel"
	"github.com/explrms/secretSanta/internal/conversation"
	"github.com/explrms/secretSanta/internal/render"
	"github.com/explrms/secretSanta/internal/survey"
)

// StartSurvey opens the questionnaire for a box the user takes part in.
func (f *Flows) StartSurvey(ctx context.Context, sess *conversation.Session, boxID int64) ([]channel.OutboundMessage, error) {
	if err := f.requireOpen(ctx, sess.UserID(), boxID); err != nil {
		return nil, err
	}
	return append(replies(render.SurveyIntro()), f.BeginSurvey(sess, boxID)...), nil
}

// BeginSurvey asks the first question without checking the participation, right after a join.
func (f *Flows) BeginSurvey(sess *conversation.Session, boxID int64) []channel.OutboundMessage {
	sess.Begin(conversation.FlowSurvey, conversation.StepAwaitingAnswer, conversation.Data{
		BoxID:   boxID,
		Answers: map[string]string{},
	})
	return replies(render.SurveyQuestion(0))
}

func (f *Flows) onAnswer(ctx context.Context, sess *conversation.Session, in Input) ([]channel.OutboundMessage, error) {
	data := sess.Data()
	index := data.QuestionIndex
	question, ok := survey.At(index)
	if !ok {
		sess.Clear()
		return replies(render.SessionExpired()), nil
	}
	answer := strings.TrimSpace(in.Text)
	if answer == "" {
		return nil, invalid("empty answer", render.SurveyEmptyAnswer(index))
	}
	answers := maps.Clone(data.Answers)
	if answers == nil {
		answers = map[string]string{}
	}
	answers[question.Key] = answer

	if index+1 < survey.Count() {
		sess.Advance(conversation.StepAwaitingAnswer, func(d *conversation.Data) {
			d.QuestionIndex = index + 1
			d.Answers = answers
		})
		return replies(render.SurveyQuestion(index + 1)), nil
	}

	if err := f.boxes.SaveProfile(ctx, sess.UserID(), data.BoxID, answers); err != nil {
		return f.abort(sess, data.BoxID, err)
	}
	sess.Clear()
	out := replies(render.SurveyDone())

	gifts, err := f.boxes.Gifts(ctx, data.BoxID, sess.UserID())
	if err != nil {
		return nil, err
	}
	if len(gifts) == 0 {
		out = append(out, f.BeginGifts(sess, data.BoxID)...)
	}
	return out, nil
}
