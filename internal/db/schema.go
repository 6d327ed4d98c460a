package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- USER TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS user SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON user TYPE string;
    DEFINE FIELD IF NOT EXISTS age ON user TYPE int ASSERT $value >= 0 AND $value <= 120;
    DEFINE FIELD IF NOT EXISTS email ON user TYPE string;
    DEFINE FIELD IF NOT EXISTS contact_number ON user TYPE string;
    DEFINE FIELD IF NOT EXISTS city ON user TYPE string;
    DEFINE FIELD IF NOT EXISTS password ON user TYPE string;
    DEFINE FIELD IF NOT EXISTS created_at ON user TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS user_email ON user FIELDS email UNIQUE;

    -- ==========================================================================
    -- CARETAKER TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS caretaker SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS user_email ON caretaker TYPE string;
    DEFINE FIELD IF NOT EXISTS name ON caretaker TYPE string;
    DEFINE FIELD IF NOT EXISTS contact ON caretaker TYPE string;
    DEFINE FIELD IF NOT EXISTS relation ON caretaker TYPE string;
    DEFINE FIELD IF NOT EXISTS created_at ON caretaker TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS caretaker_user ON caretaker FIELDS user_email;

    -- ==========================================================================
    -- REMINDER TABLE
    -- ==========================================================================
    -- device_id holds the owner's email (the sheets call it Device-ID/User-ID)
    DEFINE TABLE IF NOT EXISTS reminder SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS device_id ON reminder TYPE string;
    DEFINE FIELD IF NOT EXISTS reminder_type ON reminder TYPE string
        ASSERT $value IN ["Medication", "Exercise", "Meal", "Appointment", "Other"];
    DEFINE FIELD IF NOT EXISTS timestamp ON reminder TYPE datetime;
    DEFINE FIELD IF NOT EXISTS message ON reminder TYPE string;
    DEFINE FIELD IF NOT EXISTS reminder_sent ON reminder TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS acknowledged ON reminder TYPE bool DEFAULT false;

    DEFINE INDEX IF NOT EXISTS reminder_device_time ON reminder FIELDS device_id, timestamp;

    -- ==========================================================================
    -- ALERT TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS alert SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS user_email ON alert TYPE string;
    DEFINE FIELD IF NOT EXISTS monitor ON alert TYPE string;
    DEFINE FIELD IF NOT EXISTS decision ON alert TYPE string;
    DEFINE FIELD IF NOT EXISTS votes ON alert TYPE array<int>;
    DEFINE FIELD IF NOT EXISTS features ON alert TYPE array<float>;
    DEFINE FIELD IF NOT EXISTS source ON alert TYPE string;
    DEFINE FIELD IF NOT EXISTS notification ON alert TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS notified_to ON alert TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS created_at ON alert TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS alert_user_time ON alert FIELDS user_email, created_at;
`
