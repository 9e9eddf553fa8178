package telegram

// Static informational content. Pure data: the care catalogue and FAQ are
// not part of any state machine.

const welcomeText = `👋 Привет! Я бот-помощник по уходу за свежей татуировкой.

Я подскажу, как ухаживать за тату по дням заживления, отвечу на частые вопросы и передам ваш вопрос мастеру.

📅 Для начала укажите дату вашего сеанса в формате ДД.ММ.ГГГГ — или нажмите кнопку ниже.`

const welcomeBackText = `С возвращением! 👋 Выберите нужный раздел в меню.`

const helpText = `ℹ️ <b>Что я умею</b>

/start — главное меню
/setdate — изменить дату сеанса
/myquestions — мои вопросы и ответы
/help — эта справка

В меню вы найдёте инструкции по уходу, частые вопросы, запись на сеанс и возможность задать вопрос мастеру.`

const askQuestionPrompt = `✍️ Напишите ваш вопрос одним сообщением — мастер ответит в ближайшее время.

Для отмены отправьте «отмена».`

const setDatePrompt = `📅 Отправьте дату сеанса в формате ДД.ММ.ГГГГ, либо напишите «сегодня» или «вчера».`

const bookKindPrompt = `📅 <b>Запись</b>

Выберите, на что хотите записаться:`

const bookDatePrompt = `📅 На какую дату вы хотите записаться? Формат: ДД.ММ.ГГГГ.

Для отмены отправьте «отмена».`

const careDay1Text = `🩹 <b>Первые 24 часа</b>

• Снимите плёнку через 2–4 часа, если мастер не сказал иначе.
• Промойте тату тёплой водой с мягким мылом без отдушек.
• Промокните чистым бумажным полотенцем, не трите.
• Нанесите тонкий слой заживляющей мази.
• Не закрывайте тату одеждой из грубой ткани.`

const careWeek1Text = `🧴 <b>Первая неделя</b>

• Промывайте 2–3 раза в день, мазь — тонким слоем после каждого мытья.
• Не чешите и не сдирайте корочки.
• Избегайте спортзала, бассейна, сауны и прямого солнца.
• Спите так, чтобы тату не прилипала к постели.`

const careLongTermText = `☀️ <b>Долгосрочный уход</b>

• Через 2–4 недели корочки сойдут — начинайте пользоваться увлажняющим кремом.
• Всегда используйте SPF 30+ на зажившей тату летом.
• Заметили сильное покраснение или нагноение — сразу свяжитесь с мастером.`

const faqText = `❓ <b>Частые вопросы</b>

<b>Можно ли мочить тату?</b>
Кратко мыть — да, размачивать в ванне или бассейне — нет, минимум 2 недели.

<b>Когда можно заниматься спортом?</b>
Лёгкие тренировки — через неделю, активные — через 2–3 недели.

<b>Тату шелушится — это нормально?</b>
Да, шелушение на 4–7 день — обычная часть заживления.

<b>Когда нужна коррекция?</b>
Оценивайте результат не раньше, чем через месяц после полного заживления.`

const unknownCallbackText = "Раздел недоступен"
const accessDeniedText = "⛔ У вас нет доступа к этому разделу."
const genericErrorText = "😔 Что-то пошло не так. Попробуйте ещё раз позже."
