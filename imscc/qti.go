package imscc

import (
	"archive/zip"
	"strconv"

	"github.com/beevik/etree"

	"ccb/course"
)

// writeQuiz emits the QTI 1.2 assessment and the canvas assessment metadata
// into the quiz identifier directory.
func writeQuiz(zw *zip.Writer, q *course.Quiz, pretty bool) error {
	if err := writeXMLToZip(zw, q.Identifier+"/"+q.Identifier+".xml", qtiDoc(q), pretty); err != nil {
		return err
	}
	return writeXMLToZip(zw, q.Identifier+"/assessment_meta.xml", assessmentMetaDoc(q), pretty)
}

func assessmentMetaDoc(q *course.Quiz) *etree.Document {
	doc, root := canvasDoc("quiz")
	root.CreateAttr("identifier", q.Identifier)

	root.CreateElement("title").SetText(q.Title)
	if q.Description != "" {
		root.CreateElement("description").SetText(q.Description)
	}
	root.CreateElement("quiz_type").SetText(q.QuizType)
	root.CreateElement("points_possible").SetText(formatPoints(q.PointsPossible()))
	root.CreateElement("workflow_state").SetText("available")
	root.CreateElement("scoring_policy").SetText("keep_highest")
	root.CreateElement("allowed_attempts").SetText("1")
	return doc
}

func qtiDoc(q *course.Quiz) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	interop := doc.CreateElement("questestinterop")
	interop.CreateAttr("xmlns", "http://www.imsglobal.org/xsd/ims_qtiasiv1p2")
	interop.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")
	interop.CreateAttr("xsi:schemaLocation",
		"http://www.imsglobal.org/xsd/ims_qtiasiv1p2 http://www.imsglobal.org/xsd/ims_qtiasiv1p2p1.xsd")

	assessment := interop.CreateElement("assessment")
	assessment.CreateAttr("ident", q.Identifier)
	assessment.CreateAttr("title", q.Title)

	section := assessment.CreateElement("section")
	section.CreateAttr("ident", "root_section")

	for i := range q.Questions {
		buildQuestionItem(section, &q.Questions[i], i+1)
	}
	return doc
}

func buildQuestionItem(section *etree.Element, question *course.Question, position int) {
	item := section.CreateElement("item")
	item.CreateAttr("ident", "question_"+strconv.Itoa(position))
	item.CreateAttr("title", "Question "+strconv.Itoa(position))

	metadata := item.CreateElement("itemmetadata")
	qtimetadata := metadata.CreateElement("qtimetadata")
	addMetaField(qtimetadata, "question_type", canvasQuestionType(question.Type))
	addMetaField(qtimetadata, "points_possible", formatPoints(question.Points))

	presentation := item.CreateElement("presentation")
	material := presentation.CreateElement("material")
	mattext := material.CreateElement("mattext")
	mattext.CreateAttr("texttype", "text/html")
	mattext.SetText(question.Text)

	switch question.Type {
	case "multiple_choice", "true_false":
		buildChoiceResponse(item, presentation, question, position)
	case "short_answer":
		buildShortAnswerResponse(item, presentation, question, position)
	default:
		// essay and anything unknown: free text, graded by hand
		response := presentation.CreateElement("response_str")
		response.CreateAttr("ident", "response_"+strconv.Itoa(position))
		response.CreateAttr("rcardinality", "Single")
		fib := response.CreateElement("render_fib")
		fib.CreateAttr("rows", "10")
	}
}

func buildChoiceResponse(item, presentation *etree.Element, question *course.Question, position int) {
	ident := "response_" + strconv.Itoa(position)

	response := presentation.CreateElement("response_lid")
	response.CreateAttr("ident", ident)
	response.CreateAttr("rcardinality", "Single")
	choice := response.CreateElement("render_choice")

	correct := ""
	for i, a := range question.Answers {
		answerID := "answer_" + strconv.Itoa(position) + "_" + strconv.Itoa(i+1)
		if a.Correct && correct == "" {
			correct = answerID
		}
		label := choice.CreateElement("response_label")
		label.CreateAttr("ident", answerID)
		material := label.CreateElement("material")
		mattext := material.CreateElement("mattext")
		mattext.CreateAttr("texttype", "text/plain")
		mattext.SetText(a.Text)
	}

	processing := item.CreateElement("resprocessing")
	outcomes := processing.CreateElement("outcomes")
	decvar := outcomes.CreateElement("decvar")
	decvar.CreateAttr("maxvalue", "100")
	decvar.CreateAttr("minvalue", "0")
	decvar.CreateAttr("varname", "SCORE")
	decvar.CreateAttr("vartype", "Decimal")

	if correct == "" {
		return
	}
	condition := processing.CreateElement("respcondition")
	condition.CreateAttr("continue", "No")
	conditionvar := condition.CreateElement("conditionvar")
	varequal := conditionvar.CreateElement("varequal")
	varequal.CreateAttr("respident", ident)
	varequal.SetText(correct)
	setvar := condition.CreateElement("setvar")
	setvar.CreateAttr("action", "Set")
	setvar.CreateAttr("varname", "SCORE")
	setvar.SetText("100")
}

func buildShortAnswerResponse(item, presentation *etree.Element, question *course.Question, position int) {
	ident := "response_" + strconv.Itoa(position)

	response := presentation.CreateElement("response_str")
	response.CreateAttr("ident", ident)
	response.CreateAttr("rcardinality", "Single")
	fib := response.CreateElement("render_fib")
	fib.CreateAttr("columns", "30")

	processing := item.CreateElement("resprocessing")
	outcomes := processing.CreateElement("outcomes")
	decvar := outcomes.CreateElement("decvar")
	decvar.CreateAttr("maxvalue", "100")
	decvar.CreateAttr("minvalue", "0")
	decvar.CreateAttr("varname", "SCORE")
	decvar.CreateAttr("vartype", "Decimal")

	condition := processing.CreateElement("respcondition")
	condition.CreateAttr("continue", "No")
	conditionvar := condition.CreateElement("conditionvar")
	for _, a := range question.Answers {
		if !a.Correct {
			continue
		}
		varequal := conditionvar.CreateElement("varequal")
		varequal.CreateAttr("respident", ident)
		varequal.CreateAttr("case", "No")
		varequal.SetText(a.Text)
	}
	setvar := condition.CreateElement("setvar")
	setvar.CreateAttr("action", "Set")
	setvar.CreateAttr("varname", "SCORE")
	setvar.SetText("100")
}

func addMetaField(parent *etree.Element, label, entry string) {
	field := parent.CreateElement("qtimetadatafield")
	field.CreateElement("fieldlabel").SetText(label)
	field.CreateElement("fieldentry").SetText(entry)
}

func canvasQuestionType(t string) string {
	switch t {
	case "multiple_choice":
		return "multiple_choice_question"
	case "true_false":
		return "true_false_question"
	case "short_answer":
		return "short_answer_question"
	case "essay":
		return "essay_question"
	default:
		return "text_only_question"
	}
}
