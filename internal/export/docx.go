// Package export renders a stored guide's quiz, flashcards or summary into a
// downloadable Word document.
package export

import (
	"io"
	"strings"

	"github.com/fumiama/go-docx"

	"guidegen/internal/models"
)

// ContentType is the MIME type of the generated documents.
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const (
	headingSize    = "32"
	subheadingSize = "28"
	frontShade     = "FFCCCB"
	backShade      = "FFDAB9"
)

// Quiz renders each question as a bold paragraph followed by its answers as
// bullet items. The correct index is deliberately not marked.
func Quiz(questions []models.QuizQuestion) io.WriterTo {
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText("Quiz").Size(headingSize).Bold()

	for _, q := range questions {
		doc.AddParagraph().AddText(q.Question).Bold()
		for _, ans := range q.PossibleAnswers {
			doc.AddParagraph().AddText("• " + ans)
		}
	}
	return doc
}

// Flashcards renders a two-column front/back table with shaded cells.
func Flashcards(cards []models.FlashCard) io.WriterTo {
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText("Flashcards").Size(headingSize).Bold()

	table := doc.AddTable(len(cards)+1, 2, 8000, nil)
	header := table.TableRows[0]
	header.TableCells[0].AddParagraph().AddText("Front").Bold()
	header.TableCells[1].AddParagraph().AddText("Back").Bold()

	for i, card := range cards {
		row := table.TableRows[i+1]
		row.TableCells[0].AddParagraph().AddText(card.Front).Shade("clear", "auto", frontShade)
		row.TableCells[1].AddParagraph().AddText(card.Back).Shade("clear", "auto", backShade)
	}
	return doc
}

// BlockKind classifies one line of summary markup.
type BlockKind int

const (
	// BlockHeading is a line starting with a heading marker (#).
	BlockHeading BlockKind = iota
	// BlockBold is a line fully wrapped in ** emphasis markers.
	BlockBold
	// BlockBullet is a line starting with a "- " bullet marker.
	BlockBullet
	// BlockParagraph is any other non-blank line.
	BlockParagraph
)

// Block is one structural element of a parsed summary.
type Block struct {
	Kind BlockKind
	Text string
}

// SummaryBlocks translates the generator's markdown-flavored summary into
// structural blocks. Blank lines are dropped. The mapping, not the visual
// styling, is the contract here.
func SummaryBlocks(summary string) []Block {
	var blocks []Block
	for _, line := range strings.Split(summary, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "#"):
			blocks = append(blocks, Block{
				Kind: BlockHeading,
				Text: strings.TrimSpace(strings.ReplaceAll(line, "#", "")),
			})
		case strings.HasPrefix(line, "**") && strings.HasSuffix(strings.TrimRight(line, " "), "**"):
			blocks = append(blocks, Block{
				Kind: BlockBold,
				Text: strings.ReplaceAll(strings.TrimSpace(line), "**", ""),
			})
		case strings.HasPrefix(line, "- "):
			blocks = append(blocks, Block{
				Kind: BlockBullet,
				Text: strings.TrimPrefix(line, "- "),
			})
		default:
			blocks = append(blocks, Block{Kind: BlockParagraph, Text: line})
		}
	}
	return blocks
}

// Summary renders the parsed summary blocks: headings as sized bold text,
// bold blocks as bold paragraphs, bullets as bullet items, the rest as plain
// paragraphs.
func Summary(summary string) io.WriterTo {
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText("Summary").Size(headingSize).Bold()

	for _, block := range SummaryBlocks(summary) {
		switch block.Kind {
		case BlockHeading:
			doc.AddParagraph().AddText(block.Text).Size(subheadingSize).Bold()
		case BlockBold:
			doc.AddParagraph().AddText(block.Text).Bold()
		case BlockBullet:
			doc.AddParagraph().AddText("• " + block.Text)
		default:
			doc.AddParagraph().AddText(block.Text)
		}
	}
	return doc
}
