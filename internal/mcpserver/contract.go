package mcpserver

// DocFormatContract describes the canonical rich-text document format that
// LLM consumers should follow when writing note entity docs.
const DocFormatContract = `# Fihrist Note Document Contract

Every note entity stores its body as a JSON rich-text document. References to
other entities are carried as marks on text nodes and are what the backlink
index is built from.

## Structure

` + "```" + `json
{
  "type": "doc",
  "content": [
    {
      "type": "paragraph",
      "content": [
        { "type": "text", "text": "plain prose" },
        {
          "type": "text",
          "text": "الرحمة",
          "marks": [
            {
              "type": "entityReference",
              "attrs": {
                "targetType": "word",
                "targetId": "w-rahma",
                "displayText": "الرحمة"
              }
            }
          ]
        }
      ]
    }
  ]
}
` + "```" + `

## Rules

1. **The root node type is ` + "`" + `doc` + "`" + `.** Nested content may be arbitrarily deep;
   the extractor walks every node.
2. **References are ` + "`" + `entityReference` + "`" + ` marks.** ` + "`" + `targetType` + "`" + ` must be a valid
   entity kind (word, root, verse, hadith, note, course, lesson, book,
   chapter, tag) and ` + "`" + `targetId` + "`" + ` must be non-empty, or the mark is ignored.
3. **` + "`" + `displayText` + "`" + ` is optional.** When omitted, the marked node's own text is
   used as the display text.
4. **Referencing the same entity twice** in one note produces a single
   backlink. Order follows first appearance in the document.
5. **Saving a note replaces its backlink set** with exactly the references
   present in the saved doc. Removing a mark removes the backlink.
6. **Arabic text** may be written with or without diacritics; search matches
   it either way.
`
