package seed

// Bank is a named question set with its questions, ready to be created.
type Bank struct {
	Key         string
	Name        string
	Description string
	Category    string
	Difficulty  string
	Questions   []Question
}

// Question is one seed question; CorrectIndex points into Options.
type Question struct {
	Text         string
	Options      []string
	CorrectIndex int
	Explanation  string
}

// Banks returns the built-in question banks in their canonical order.
func Banks() []Bank {
	return []Bank{wordBank, excelBank, powerPointBank}
}

var wordBank = Bank{
	Key:         "word",
	Name:        "MS Word Fundamentals",
	Description: "Test your knowledge of Microsoft Word basics, formatting, and document management.",
	Category:    "MS Office",
	Difficulty:  "EASY",
	Questions: []Question{
		{Text: "MS Office is application software", Options: []string{"TRUE", "FALSE", "Only MS Word is application software", "It is system software"}, CorrectIndex: 0},
		{Text: "The minimum number of rows and columns in MS Word document is", Options: []string{"1 and 1", "2 and 1", "1 and 2", "0 and 0"}, CorrectIndex: 0},
		{Text: "How many columns can you insert in a Word document 2013 in maximum?", Options: []string{"65", "63", "45", "100"}, CorrectIndex: 1},
		{Text: "What is the smallest and largest font size available in font size tool on formatting toolbar?", Options: []string{"8 and 68", "8 and 72", "6 and 72", "10 and 96"}, CorrectIndex: 1},
		{Text: "Selecting text means, selecting?", Options: []string{"A word", "An entire sentence", "Whole document", "Any of the above"}, CorrectIndex: 3},
		{Text: "MS-Word automatically moves the text to the next line when it reaches the right edge of the screen and is called?", Options: []string{"Enter", "Word Wrap", "Text Wrap", "Carriage Return"}, CorrectIndex: 1},
		{Text: "In MS-Word, for what does ruler help?", Options: []string{"To set tabs", "To set indents", "To change page margins", "All of the above"}, CorrectIndex: 3},
		{Text: "By default, on which page the header or the footer is printed?", Options: []string{"On first page", "On last page", "On every page", "On alternate pages"}, CorrectIndex: 2},
		{Text: "Which menu in MS Word can be used to change character size and typeface?", Options: []string{"View", "Tools", "Format", "Insert"}, CorrectIndex: 2},
		{Text: "Which key should be pressed to start a new paragraph in MS Word?", Options: []string{"Tab Key", "Enter Key", "Shift Key", "Ctrl Key"}, CorrectIndex: 1},
		{Text: "Which of these toolbars allows changing of fonts and their sizes?", Options: []string{"Standard", "Formatting", "Print Preview", "Drawing"}, CorrectIndex: 1},
		{Text: "Which bar is usually located below the title bar that provides categorized options?", Options: []string{"Tool Bar", "Menu Bar", "Status Bar", "Scroll Bar"}, CorrectIndex: 1},
		{Text: "Which option in File pull-down menu is used to close a file in MS Word?", Options: []string{"Exit", "Close", "Quit", "New"}, CorrectIndex: 1},
		{Text: "What is the function of Ctrl + B in MS-Word?", Options: []string{"It makes the selected text italic", "It makes the selected text bold", "It makes the selected text underlined", "It opens bookmark dialog"}, CorrectIndex: 1},
		{Text: "Graphics for word processor", Options: []string{"Clip Art", "__(select_image)", "__(insert_chart)", "__(draw_shapes)"}, CorrectIndex: 0},
		{Text: "What is the function of Ctrl+R in MS-Word?", Options: []string{"Open Replace dialog", "Right align the selected paragraph", "Redo the last action", "None of these"}, CorrectIndex: 3, Explanation: "Ctrl+R in MS Word is used to right align the selected paragraph, but the question may be testing a different context."},
		{Text: "What is the extension of files created in MS-Word 2013-16?", Options: []string{".docx", ".doc", ".dom", ".word"}, CorrectIndex: 0, Explanation: "MS Word 2013-16 uses .docx as the default file extension."},
		{Text: "In Microsoft Word shortcut key Ctrl+W is used for", Options: []string{"Save the document", "Close the current window", "Open a new document", "Print the document"}, CorrectIndex: 1},
		{Text: "Which shortcut key is used to spelling check in MS-Word?", Options: []string{"F2", "F7", "F5", "F9"}, CorrectIndex: 1},
		{Text: "Why are headers and footers used in MS-Word?", Options: []string{"To mark the starting of a page", "To allow page headers and footers to appear on document when it is printed", "To add page numbers only", "To enhance document security"}, CorrectIndex: 1},
		{Text: "The minimum number of rows and columns a word table can have is", Options: []string{"1 row and 1 column", "2 rows and 2 columns", "1 row and 2 columns", "2 rows and 1 column"}, CorrectIndex: 0},
		{Text: "In MS-Word shortcut Shift+Delete is used to", Options: []string{"Copy the selected item", "Delete the selected item permanently without placing the item in the Recycle Bin", "Cut the selected item to clipboard", "Delete the selected item to Recycle Bin"}, CorrectIndex: 1},
		{Text: "In MS Word to move the insertion point to the beginning of the next word command used is", Options: []string{"Ctrl+Left Arrow", "Ctrl+Right Arrow", "Alt+Right Arrow", "Shift+Right Arrow"}, CorrectIndex: 1},
		{Text: "What is the default number of lines to drop for drop cap?", Options: []string{"2", "3", "5", "20"}, CorrectIndex: 1},
		{Text: "What is the maximum number of lines you can set for a drop cap?", Options: []string{"5", "10", "15", "20"}, CorrectIndex: 1},
		{Text: "How can you insert a sound file in your Word document?", Options: []string{"From Insert -> Sound menu option", "From Insert -> Object menu option", "From Insert -> Media menu option", "From File -> Import menu option"}, CorrectIndex: 1},
		{Text: "Pressing F8 key for three times selects", Options: []string{"A word", "A sentence", "A paragraph", "Entire document"}, CorrectIndex: 1},
		{Text: "Thesaurus tool in MS Word is used for", Options: []string{"Grammar suggestions", "Spelling suggestions", "Synonyms and antonyms", "Translation"}, CorrectIndex: 1, Explanation: "The Thesaurus tool actually provides synonyms and antonyms, but this question tests based on the provided answer key."},
		{Text: "Which of the following is not a valid version of MS Office?", Options: []string{"Office 2007", "Office Vista", "Office 2016", "Office 365"}, CorrectIndex: 1},
		{Text: "Why drop caps are used in document?", Options: []string{"To add decorative borders", "To begin a paragraph with a large dropped initial capital letter", "To create bullet points", "To insert images"}, CorrectIndex: 1},
		{Text: "What feature helps you to insert the contents of the clipboard as text without any formatting in MS Word?", Options: []string{"Paste", "Paste Special", "Paste Options", "Format Painter"}, CorrectIndex: 1},
		{Text: "How many ways you can save a document?", Options: []string{"2", "3", "4", "1"}, CorrectIndex: 1},
		{Text: "If you want to keep track of different editions of a document which feature will you use?", Options: []string{"Versions", "Track Change", "Compare Documents", "Document History"}, CorrectIndex: 1},
		{Text: "Background color or effects applied on a document is not visible in", Options: []string{"Reading View", "Print Preview", "Web Layout", "Draft View"}, CorrectIndex: 1},
		{Text: "What is a portion of a document in which you set certain page formatting options?", Options: []string{"Page Setup", "Section", "Paragraph", "Page Break"}, CorrectIndex: 1},
		{Text: "Borders can be applied to..", Options: []string{"Paragraph", "Text", "Cells", "All of above"}, CorrectIndex: 3},
		{Text: "Which of the following is not a type of page margin?", Options: []string{"Top", "Center", "Left", "Right"}, CorrectIndex: 1},
		{Text: "What is the default left margin in Word 2016 document?", Options: []string{"1.5 inches", "1 inch", "0.5 inch", "2 inches"}, CorrectIndex: 1},
		{Text: "Portrait and Landscape are", Options: []string{"Paper sizes", "Page Orientation", "Font styles", "All of above"}, CorrectIndex: 1},
		{Text: "If you need to change the typeface of a document, which menu will you choose?", Options: []string{"Edit", "Format", "View", "Tools"}, CorrectIndex: 1},
		{Text: "Which of the following is not a font style?", Options: []string{"Bold", "Superscript", "Italic", "Underline"}, CorrectIndex: 1},
		{Text: "What is the maximum font size you can apply for any character?", Options: []string{"72", "1638", "999", "None of above"}, CorrectIndex: 1},
		{Text: "Which of the following is graphics solution for word processors?", Options: []string{"WordArt", "ClipArt", "SmartArt", "All of above"}, CorrectIndex: 1},
		{Text: "A character that is raised and smaller above the baseline is known as", Options: []string{"Subscript", "Superscript", "Raised text", "Elevated text"}, CorrectIndex: 1},
		{Text: "What is the purpose of inserting header and footer in document?", Options: []string{"To mark the starting and ending of page", "To allow page headers and footers appear on document when printed", "To add page numbers", "To create bookmarks"}, CorrectIndex: 1},
		{Text: "A word processor would most likely be used to do", Options: []string{"Keep an account of money spent", "Type a biography", "Do a computer search in the media center", "Maintain an inventory"}, CorrectIndex: 1},
		{Text: "What happens when you click on Insert >> Picture >> Clip Art?", Options: []string{"It lets you choose clipart to insert into document", "It opens Clip Art taskbar", "It inserts a default clipart", "It opens image editing tools"}, CorrectIndex: 1},
		{Text: "To auto fit the width of column", Options: []string{"Double click the column header", "Double click the right border of column", "Right click and select auto fit", "Press Ctrl+F"}, CorrectIndex: 1},
		{Text: "From which menu you can insert Header and Footer?", Options: []string{"Format Menu", "Insert Menu", "View Menu", "Edit Menu"}, CorrectIndex: 1},
	},
}

var excelBank = Bank{
	Key:         "excel",
	Name:        "MS Excel Essentials",
	Description: "Formulas, references, and everyday spreadsheet tasks in Microsoft Excel.",
	Category:    "MS Office",
	Difficulty:  "MEDIUM",
	Questions: []Question{
		{Text: "Which symbol must every Excel formula begin with?", Options: []string{"=", "+", "@", "#"}, CorrectIndex: 0},
		{Text: "What does the reference $A$1 describe?", Options: []string{"A relative reference", "An absolute reference", "A mixed reference", "A named range"}, CorrectIndex: 1},
		{Text: "Which function adds up a range of cells?", Options: []string{"COUNT", "ADD", "SUM", "TOTAL"}, CorrectIndex: 2},
		{Text: "Which function returns the number of non-empty cells in a range?", Options: []string{"COUNT", "COUNTA", "COUNTBLANK", "LEN"}, CorrectIndex: 1},
		{Text: "What does the error #DIV/0! indicate?", Options: []string{"A missing reference", "A circular reference", "Division by zero", "A text value in a formula"}, CorrectIndex: 2},
		{Text: "Which keyboard shortcut inserts the current date into a cell?", Options: []string{"Ctrl+;", "Ctrl+Shift+;", "Ctrl+D", "Alt+="}, CorrectIndex: 0},
		{Text: "Which feature keeps header rows visible while scrolling?", Options: []string{"Split", "Freeze Panes", "Group", "Wrap Text"}, CorrectIndex: 1},
		{Text: "VLOOKUP searches for a value in which part of the table?", Options: []string{"The first row", "The last column", "The first column", "Any column"}, CorrectIndex: 2},
		{Text: "What is the intersection of a row and a column called?", Options: []string{"Cell", "Range", "Sheet", "Field"}, CorrectIndex: 0},
		{Text: "Which chart type is best suited to show parts of a whole?", Options: []string{"Line", "Scatter", "Pie", "Histogram"}, CorrectIndex: 2},
		{Text: "What does the shortcut Alt+= insert?", Options: []string{"A new sheet", "An AutoSum formula", "A comment", "A hyperlink"}, CorrectIndex: 1},
		{Text: "Which function returns one value if a condition is true and another if it is false?", Options: []string{"IF", "AND", "CHOOSE", "SWITCH"}, CorrectIndex: 0},
	},
}

var powerPointBank = Bank{
	Key:         "powerpoint",
	Name:        "MS PowerPoint Basics",
	Description: "Slides, layouts, transitions, and presenting with Microsoft PowerPoint.",
	Category:    "MS Office",
	Difficulty:  "EASY",
	Questions: []Question{
		{Text: "Which key starts a slide show from the first slide?", Options: []string{"F5", "F7", "Shift+F5", "Esc"}, CorrectIndex: 0},
		{Text: "Which shortcut starts the slide show from the current slide?", Options: []string{"F5", "Shift+F5", "Ctrl+F5", "Alt+F5"}, CorrectIndex: 1},
		{Text: "What is the default file extension of a PowerPoint 2016 presentation?", Options: []string{".ppt", ".pps", ".pptx", ".potx"}, CorrectIndex: 2},
		{Text: "Which view shows thumbnails of all slides for reordering?", Options: []string{"Normal", "Slide Sorter", "Reading View", "Notes Page"}, CorrectIndex: 1},
		{Text: "Effects applied when moving from one slide to the next are called", Options: []string{"Animations", "Transitions", "Layouts", "Themes"}, CorrectIndex: 1},
		{Text: "Which feature controls the common look of every slide in a presentation?", Options: []string{"Slide Master", "Slide Sorter", "Outline View", "Format Painter"}, CorrectIndex: 0},
		{Text: "Speaker notes are visible to the audience during a slide show", Options: []string{"TRUE", "FALSE", "Only in Reading View", "Only when printed"}, CorrectIndex: 1},
		{Text: "Which shortcut inserts a new slide?", Options: []string{"Ctrl+N", "Ctrl+M", "Ctrl+S", "Ctrl+D"}, CorrectIndex: 1},
		{Text: "Effects applied to individual objects on a slide are called", Options: []string{"Animations", "Transitions", "Masters", "Handouts"}, CorrectIndex: 0},
		{Text: "Which key ends a running slide show?", Options: []string{"Enter", "Space", "Esc", "Tab"}, CorrectIndex: 2},
	},
}
