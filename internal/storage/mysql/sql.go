package mysql

// -----------------------------------------------------------------------------
// WRITE QUERIES
// -----------------------------------------------------------------------------

const insertInquirySQL = `
INSERT INTO inquiries (id, kind, email, payload, delivered, error, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const insertMissSQL = `
INSERT INTO lookup_misses (hotel_id, reason)
VALUES (?, ?)
`
