package report

import (
	"fmt"
	"time"

	"academic-assist/internal/request"
)

const (
	nameLimit    = 20
	subjectLimit = 15
)

// Field is a "Label:" / value pair of a key/value block.
type Field struct {
	Label string
	Value string
}

type Table struct {
	Header []string
	Rows   [][]string
}

// Section renders its heading followed by whichever of Fields, Text, Table
// and Lines are set, in that order.
type Section struct {
	Heading string
	Fields  []Field
	Text    string
	Table   *Table
	Lines   []string
}

// Document is the layout-independent content of a report.
type Document struct {
	Title    string
	Subtitle string
	Sections []Section
}

// Single builds the details report of one request. Details and topics are
// kept in full.
func Single(req request.Request) Document {
	university := req.University
	if university == "" {
		university = "Not specified"
	}

	doc := Document{
		Title: singleTitle(req.Category),
		Sections: []Section{
			{
				Heading: "Student Information",
				Fields: []Field{
					{"Name:", req.Name},
					{"Email:", req.Email},
					{"Contact:", req.Contact},
					{"University:", university},
				},
			},
			{
				Heading: req.Category.Title() + " Details",
				Fields: []Field{
					{req.Category.Title() + " Type:", req.Type},
					{"Subject:", req.Subject},
					{dateLabel(req.Category) + ":", req.Date.Format(request.DateLayout)},
					{"Status:", req.Status},
					{"Created:", req.CreatedAt.Format(time.DateTime)},
				},
			},
		},
	}

	switch {
	case req.Category == request.CategoryAssignment:
		doc.Sections = append(doc.Sections, Section{Heading: "Assignment Description", Text: req.Details})
	case req.Details != "":
		doc.Sections = append(doc.Sections, Section{Heading: "Topics to Cover", Text: req.Details})
	}

	return doc
}

// Bulk builds the table report of a whole category with a per-status summary.
func Bulk(category request.Category, list []request.Request, now time.Time) Document {
	dateHeader := "Date"
	if category == request.CategoryAssignment {
		dateHeader = "Due Date"
	}

	table := &Table{Header: []string{"ID", "Name", "Subject", dateHeader, "Status", "Created"}}
	for _, req := range list {
		table.Rows = append(table.Rows, []string{
			fmt.Sprint(req.ID),
			truncate(req.Name, nameLimit),
			truncate(req.Subject, subjectLimit),
			req.Date.Format(request.DateLayout),
			req.Status,
			req.CreatedAt.Format(time.DateTime),
		})
	}

	return Document{
		Title:    BulkTitle(category),
		Subtitle: "Generated on: " + now.Format(time.DateTime),
		Sections: []Section{
			{Table: table},
			{Heading: "Summary", Lines: summary(list)},
		},
	}
}

// BulkTitle is "All Assignments Report", "All Quizzes Report" or "All Exams Report".
func BulkTitle(category request.Category) string {
	switch category {
	case request.CategoryQuiz:
		return "All Quizzes Report"
	case request.CategoryExam:
		return "All Exams Report"
	}
	return "All Assignments Report"
}

func SingleFilename(category request.Category, id int64) string {
	return fmt.Sprintf("%s_%d_details.pdf", category, id)
}

func BulkFilename(category request.Category) string {
	return fmt.Sprintf("all_%s_report.pdf", category.Dir())
}

func singleTitle(category request.Category) string {
	if category == request.CategoryAssignment {
		return "Assignment Details"
	}
	return category.Title() + " Request Details"
}

func dateLabel(category request.Category) string {
	switch category {
	case request.CategoryQuiz:
		return "Test Date"
	case request.CategoryExam:
		return "Exam Date"
	}
	return "Due Date"
}

// summary counts statuses in order of first appearance.
func summary(list []request.Request) []string {
	var order []string
	counts := make(map[string]int)
	for _, req := range list {
		if _, seen := counts[req.Status]; !seen {
			order = append(order, req.Status)
		}
		counts[req.Status]++
	}

	lines := make([]string, 0, len(order)+1)
	for _, status := range order {
		lines = append(lines, fmt.Sprintf("%s: %d requests", status, counts[status]))
	}
	return append(lines, fmt.Sprintf("Total Requests: %d", len(list)))
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
